package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/handler"
	"github.com/venuedesk/seat-reservation/internal/middleware"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// RegisterCustomer registers customer booking endpoints under /v1.
// All routes require a valid JWT and the CUSTOMER role.  Reservation
// creation additionally sits behind the rate limiter: it is the one
// write endpoint guests hammer during popular on-sales.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, ratelimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	g.POST("/showings/:id/reservations", b.CreateReservation, ratelimit)
	g.GET("/reservations/:id", b.GetReservation)
	g.DELETE("/reservations/:id", b.CancelReservation)
	g.GET("/my-reservations", b.ListMyReservations)
}
