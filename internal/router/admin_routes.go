package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/handler"
	"github.com/Pedro4O4/event-ticketing/internal/middleware"
)

// RegisterAdmin registers the moderation endpoints under /v1/admin.  All
// routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, ad *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleAdmin),
	)

	g.GET("/events/pending", ad.PendingEvents)
	g.POST("/events/:id/review", ad.ReviewEvent)
	g.GET("/users", ad.ListUsers)
	g.PATCH("/users/:id/active", ad.SetUserActive)
	g.PATCH("/theaters/:id/active", ad.SetTheaterActive)
}
