package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/repository"
)

// AdminReservationHandler serves the administrative reservation
// surface: listing across all users, fetching any reservation and
// the owner-override cancellation.  Role middleware guarantees the
// caller is an admin before any of these run.
type AdminReservationHandler struct {
	Svc          BookingService
	Reservations *repository.ReservationRepo
}

// NewAdminReservationHandler constructs an AdminReservationHandler.
func NewAdminReservationHandler(svc BookingService, reservations *repository.ReservationRepo) *AdminReservationHandler {
	if svc == nil || reservations == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Svc: svc, Reservations: reservations}
}

// ListReservations handles GET /v1/admin/reservations.  Optional
// query filters: status, showing_id, user_id, page, page_size.
func (h *AdminReservationHandler) ListReservations(c echo.Context) error {
	f, err := reservationFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if s := c.QueryParam("user_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id filter"})
		}
		f.UserID = id
	}

	list, err := h.Reservations.ListAll(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reservationViews(list), "count": len(list)})
}

// GetReservation handles GET /v1/admin/reservations/:id and returns
// any user's reservation.
func (h *AdminReservationHandler) GetReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newReservationView(r)})
}

// CancelReservation handles DELETE /v1/admin/reservations/:id.  The
// admin override skips the ownership check but not the cutoff: a
// reservation whose showing already started stays booked.
func (h *AdminReservationHandler) CancelReservation(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Svc.CancelReservation(c.Request().Context(), id, adminID, true); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
