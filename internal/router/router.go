// Package router wires handlers to routes.  Registration is split
// by audience: public browse, authenticated customers and admins.
// Middleware (JWT, roles, rate limiting, response caching) is
// attached at the group level here, never inside handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/handler"
	"github.com/venuedesk/seat-reservation/internal/middleware"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// RegisterRoutes registers routes that need no handler state.
// Currently that is only the health probe.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register,
// login, refresh, refresh-access and logout live under /v1/auth and
// need no session; /v1/me sits behind the JWT middleware.  Logout
// is also aliased at /v1/logout for clients that expect it there.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleCustomer),
	)
	auth.GET("/me", a.Me)
}
