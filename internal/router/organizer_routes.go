package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/handler"
	"github.com/Pedro4O4/event-ticketing/internal/middleware"
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under /v1.  All
// routes require a valid JWT and the ORGANIZER role.
func RegisterOrganizer(e *echo.Echo, th *handler.OrganizerTheaterHandler, ev *handler.OrganizerEventHandler, bk *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.RoleOrganizer),
	)

	// ---- Theaters ----
	g.POST("/theaters", th.Create)
	g.GET("/my-theaters", th.List)
	g.GET("/my-theaters/:id", th.Get)
	g.PUT("/theaters/:id", th.Update)
	g.PATCH("/theaters/:id", th.Update)
	g.DELETE("/theaters/:id", th.Delete)

	// ---- Events ----
	g.POST("/events", ev.Create)
	g.GET("/my-events", ev.List)
	g.GET("/my-events/:id", ev.Get)
	g.PUT("/events/:id", ev.Update)
	g.PATCH("/events/:id", ev.Update)
	g.DELETE("/events/:id", ev.Delete)

	// ---- Sales ----
	g.GET("/events/:id/bookings", bk.ListForEvent)
}
