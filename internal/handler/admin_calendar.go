package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/model"
	"github.com/iliyamo/yacht-charter/internal/service"
)

// CalendarHandler serves the admin booking calendar.
type CalendarHandler struct {
	Calendar *service.CalendarService
	now      func() time.Time
}

func NewCalendarHandler(cal *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{Calendar: cal, now: time.Now}
}

func (h *CalendarHandler) loc() *time.Location {
	if h.Calendar.Location != nil {
		return h.Calendar.Location
	}
	return time.UTC
}

// Month handles GET /v1/admin/calendar?year=&month=.  Both default to the
// current month.
func (h *CalendarHandler) Month(c echo.Context) error {
	today := h.now().In(h.loc())
	year, ok := queryInt(c, "year", today.Year())
	if !ok {
		return badRequest(c, "year must be a number")
	}
	month, ok := queryInt(c, "month", int(today.Month()))
	if !ok {
		return badRequest(c, "month must be a number")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	view, err := h.Calendar.Month(ctx, year, time.Month(month))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Conflicts handles GET /v1/admin/conflicts?from=&to=.  Dates are
// YYYY-MM-DD (to is exclusive) or RFC 3339 timestamps.
func (h *CalendarHandler) Conflicts(c echo.Context) error {
	from, ok := h.parseTime(c.QueryParam("from"))
	if !ok {
		return badRequest(c, "from must be YYYY-MM-DD or RFC 3339")
	}
	to, ok := h.parseTime(c.QueryParam("to"))
	if !ok {
		return badRequest(c, "to must be YYYY-MM-DD or RFC 3339")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	pairs, err := h.Calendar.Conflicts(ctx, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"from": from, "to": to, "pairs": pairs})
}

func (h *CalendarHandler) parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(time.DateOnly, s, h.loc()); err == nil {
		return t, true
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, err == nil
}

func bookingRef(c echo.Context) (model.SourceKind, string, bool) {
	kind := model.SourceKind(strings.ToLower(c.Param("kind")))
	id := strings.TrimSpace(c.Param("id"))
	return kind, id, kind.Valid() && id != ""
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// SetStatus handles PATCH /v1/admin/bookings/:kind/:id/status.
func (h *CalendarHandler) SetStatus(c echo.Context) error {
	kind, id, ok := bookingRef(c)
	if !ok {
		return badRequest(c, "kind must be charter or racing")
	}
	var req statusReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	actor, _ := middleware.UserID(c)

	ctx, cancel := requestCtx(c)
	defer cancel()
	status := model.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	b, err := h.Calendar.SetStatus(ctx, kind, id, status, actor)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

type moveReq struct {
	Date string `json:"date" validate:"required"`
}

// Move handles POST /v1/admin/bookings/:kind/:id/move with {"date":
// "YYYY-MM-DD"}.  The response carries the moved booking and the
// recomputed month.
func (h *CalendarHandler) Move(c echo.Context) error {
	kind, id, ok := bookingRef(c)
	if !ok {
		return badRequest(c, "kind must be charter or racing")
	}
	var req moveReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(req.Date), h.loc())
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD")
	}
	actor, _ := middleware.UserID(c)

	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Calendar.Move(ctx, kind, id, day, actor)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
