package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/yacht-charter/internal/handler"
)

func newTestEcho(limit echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, &handler.HealthHandler{})
	RegisterAuth(e, &handler.AuthHandler{}, "secret", limit)
	RegisterPublic(e, &handler.BookingHandler{}, &handler.CheckoutHandler{}, limit)
	RegisterCustomer(e, &handler.BookingHandler{}, "secret")
	RegisterAdmin(e, AdminHandlers{
		Calendar:    &handler.CalendarHandler{},
		Media:       &handler.MediaHandler{},
		Categories:  &handler.CategoryHandler{},
		Preferences: &handler.PreferencesHandler{},
	}, "secret", nil)
	RegisterFiles(e, &handler.FileHandler{})
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestEcho(nil)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"POST /v1/auth/login",
		"GET /v1/me",
		"POST /v1/bookings",
		"POST /v1/checkout/sessions",
		"GET /v1/my-bookings",
		"GET /v1/admin/calendar",
		"GET /v1/admin/conflicts",
		"PATCH /v1/admin/bookings/:kind/:id/status",
		"POST /v1/admin/bookings/:kind/:id/move",
		"GET /v1/admin/media/stats",
		"DELETE /v1/admin/media/batch",
		"GET /v1/admin/media/:id/signed-url",
		"POST /v1/admin/buckets",
		"DELETE /v1/admin/categories/:id",
		"PUT /v1/admin/preferences",
		"GET /files/:bucket/*",
	} {
		assert.True(t, have[want], want)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newTestEcho(nil)
	for _, target := range []string{"/v1/me", "/v1/my-bookings", "/v1/admin/calendar", "/v1/admin/media/stats"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicPostsAreLimited(t *testing.T) {
	blocked := func(echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return c.NoContent(http.StatusTooManyRequests) }
	}
	e := newTestEcho(blocked)
	for _, target := range []string{"/v1/auth/register", "/v1/auth/login", "/v1/auth/refresh", "/v1/bookings", "/v1/checkout/sessions"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, target)
	}
}
