package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/handler"
	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/model"
)

// AdminHandlers groups the back office handlers.
type AdminHandlers struct {
	Calendar    *handler.CalendarHandler
	Media       *handler.MediaHandler
	Categories  *handler.CategoryHandler
	Preferences *handler.PreferencesHandler
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.  statsCache
// wraps the media statistics endpoint; pass nil to disable caching.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, jwtSecret string, statsCache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Calendar ----
	g.GET("/calendar", h.Calendar.Month)
	g.GET("/conflicts", h.Calendar.Conflicts)
	g.PATCH("/bookings/:kind/:id/status", h.Calendar.SetStatus)
	g.POST("/bookings/:kind/:id/move", h.Calendar.Move)

	// ---- Media library ----
	g.GET("/media", h.Media.List)
	g.POST("/media", h.Media.Upload)
	g.POST("/media/batch", h.Media.UploadBatch)
	g.DELETE("/media/batch", h.Media.DeleteBatch)
	g.GET("/media/stats", h.Media.Stats, orPass(statsCache))
	g.GET("/media/:id", h.Media.Get)
	g.PATCH("/media/:id", h.Media.Update)
	g.DELETE("/media/:id", h.Media.Delete)
	g.GET("/media/:id/signed-url", h.Media.SignedURL)
	g.POST("/buckets", h.Media.CreateBucket)

	// ---- Categories ----
	g.GET("/categories", h.Categories.List)
	g.POST("/categories", h.Categories.Create)
	g.DELETE("/categories/:id", h.Categories.Delete)

	// ---- UI preferences ----
	g.GET("/preferences", h.Preferences.Get)
	g.PUT("/preferences", h.Preferences.Put)
}
