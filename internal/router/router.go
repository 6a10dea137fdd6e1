// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/handler"
	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/model"
)

// RegisterRoutes registers the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", h.Ready)
}

// RegisterAuth registers /v1/auth and /v1/me.  limit guards the
// credential endpoints; pass nil to leave them unlimited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, orPass(limit))
	g.POST("/login", a.Login, orPass(limit))
	g.POST("/refresh", a.Refresh, orPass(limit))
	// logout takes a refresh token in the body or a bearer token
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleCustomer))
}

// RegisterPublic registers the guest endpoints: the booking form and
// hosted checkout.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, co *handler.CheckoutHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/bookings", b.Create, orPass(limit))
	e.POST("/v1/checkout/sessions", co.Create, orPass(limit))
}

// RegisterFiles serves the local object store.  It is only mounted when
// the local storage driver is active.
func RegisterFiles(e *echo.Echo, f *handler.FileHandler) {
	e.GET("/files/:bucket/*", f.Serve)
	e.HEAD("/files/:bucket/*", f.Serve)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
