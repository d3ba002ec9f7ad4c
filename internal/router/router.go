package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Pedro4O4/event-ticketing/internal/handler"
	"github.com/Pedro4O4/event-ticketing/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication or handler
// state.  Currently just the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints.  Register, login, refresh and
// logout live under /v1/auth without a JWT; /v1/me and the all-sessions
// logout require one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the guest browsing endpoints.  cache may be nil
// when Redis is unavailable; responses are then served uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/events", p.ListEvents)
	g.GET("/events/:id", p.GetEvent)
	g.GET("/events/:id/seats", p.SeatAvailability)
	g.GET("/theaters", p.ListTheaters)
	g.GET("/theaters/:id", p.GetTheater)
}
