package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/model"
	"github.com/iliyamo/yacht-charter/internal/service"
)

// BookingHandler serves the public booking form and the customer
// dashboard.
type BookingHandler struct {
	Calendar *service.CalendarService
}

func NewBookingHandler(cal *service.CalendarService) *BookingHandler {
	return &BookingHandler{Calendar: cal}
}

type createBookingReq struct {
	Kind             string    `json:"kind" validate:"required,oneof=charter racing"`
	ResourceName     string    `json:"resource_name" validate:"max=120"`
	Start            time.Time `json:"start" validate:"required"`
	End              time.Time `json:"end" validate:"required"`
	CustomerName     string    `json:"customer_name" validate:"required,max=200"`
	CustomerEmail    string    `json:"customer_email" validate:"required,email"`
	CustomerPhone    string    `json:"customer_phone" validate:"max=50"`
	ParticipantCount int       `json:"participant_count" validate:"min=1"`
	TotalPriceCents  int64     `json:"total_price_cents" validate:"min=0"`
}

// Create handles POST /v1/bookings.  New bookings start as pending;
// overlaps are accepted and surface as conflicts in the admin calendar.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	b := &model.Booking{
		SourceKind:       model.SourceKind(req.Kind),
		ResourceName:     req.ResourceName,
		Start:            req.Start,
		End:              req.End,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		ParticipantCount: req.ParticipantCount,
		TotalPriceCents:  req.TotalPriceCents,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Calendar.CreateBooking(ctx, b); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Mine handles GET /v1/my-bookings: bookings placed under the caller's
// email, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
	email := middleware.Email(c)
	if email == "" {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	list, err := h.Calendar.CustomerBookings(ctx, email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}
