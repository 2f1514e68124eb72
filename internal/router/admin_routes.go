package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/handler"
	"github.com/venuedesk/seat-reservation/internal/middleware"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// RegisterAdmin registers venue, showing and reservation management
// under /v1.  All routes require a valid JWT and the ADMIN role.
// PUT and PATCH are both accepted on update endpoints; the handlers
// treat them identically.
func RegisterAdmin(e *echo.Echo, v *handler.VenueHandler, s *handler.ShowingHandler, r *handler.AdminReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Venues & seats ----
	g.POST("/venues", v.CreateVenue)
	g.PUT("/venues/:id", v.UpdateVenue)
	g.PATCH("/venues/:id", v.UpdateVenue)
	g.DELETE("/venues/:id", v.DeleteVenue)
	g.PUT("/seats/:id", v.UpdateSeatClass)
	g.PATCH("/seats/:id", v.UpdateSeatClass)

	// ---- Showings ----
	g.POST("/showings", s.CreateShowing)
	g.PUT("/showings/:id", s.UpdateShowing)
	g.PATCH("/showings/:id", s.UpdateShowing)
	g.DELETE("/showings/:id", s.DeleteShowing)

	// ---- Reservations (admin view + override cancel) ----
	g.GET("/admin/reservations", r.ListReservations)
	g.GET("/admin/reservations/:id", r.GetReservation)
	g.DELETE("/admin/reservations/:id", r.CancelReservation)
}
