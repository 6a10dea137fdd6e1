package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/handler"
	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/model"
)

// RegisterCustomer registers the customer dashboard under /v1.  Customers
// only ever see bookings placed under the email in their token.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	g.GET("/my-bookings", b.Mine)
}
