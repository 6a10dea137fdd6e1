package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/model"
	"github.com/iliyamo/yacht-charter/internal/service"
)

type PreferencesHandler struct {
	Prefs *service.PreferencesService
}

func NewPreferencesHandler(p *service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{Prefs: p}
}

// Get returns the caller's preferences.  When the store is down the
// defaults are returned so the back office still renders.
func (h *PreferencesHandler) Get(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Prefs.Load(ctx, uid)
	if err != nil {
		c.Response().Header().Set("X-Preferences-Fallback", "1")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PreferencesHandler) Put(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	var p model.Preferences
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Prefs.Save(ctx, uid, p); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "preferences store unavailable"})
	}
	return c.JSON(http.StatusOK, p)
}
