package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/handler"
	"github.com/Pedro4O4/event-ticketing/internal/middleware"
)

// RegisterCustomer registers booking endpoints under /v1.  Any
// authenticated account can book; the heavier booking creation route takes
// an extra rate limit when one is configured.
func RegisterCustomer(e *echo.Echo, bk *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleUser, handler.RoleOrganizer, handler.RoleAdmin),
	)

	if limit != nil {
		g.POST("/events/:id/bookings", bk.Create, limit)
	} else {
		g.POST("/events/:id/bookings", bk.Create)
	}
	g.GET("/my-bookings", bk.List)
	g.GET("/bookings/:id", bk.Get)
	g.DELETE("/bookings/:id", bk.Cancel)
}
