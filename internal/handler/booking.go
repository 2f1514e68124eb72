package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/model"
	"github.com/venuedesk/seat-reservation/internal/repository"
)

// BookingService is the slice of the booking core the HTTP layer
// needs.  The coordinator satisfies it; tests substitute a stub.
type BookingService interface {
	CreateReservation(ctx context.Context, showingID uint64, seatIDs []uint64, holderID uint64) (*model.Reservation, error)
	CancelReservation(ctx context.Context, reservationID, requesterID uint64, isAdmin bool) error
}

// BookingHandler serves customer reservation endpoints.  Mutations
// go through the booking service; reads go straight to the
// reservation repository.
type BookingHandler struct {
	Svc          BookingService
	Reservations *repository.ReservationRepo
}

// NewBookingHandler constructs a BookingHandler.  Both dependencies
// must be non-nil.
func NewBookingHandler(svc BookingService, reservations *repository.ReservationRepo) *BookingHandler {
	if svc == nil || reservations == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Reservations: reservations}
}

// CreateReservation handles POST /v1/showings/:id/reservations.  The
// body carries a "seat_ids" array; all seats are booked atomically
// or none are.  Responds 201 with the confirmed reservation
// including its reference code, or a typed error: 404 for an unknown
// showing, 400 for invalid seats, 409 when seats are taken or the
// showing started, 503 when the showing row is contended.
func (h *BookingHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	r, err := h.Svc.CreateReservation(c.Request().Context(), showingID, body.SeatIDs, userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, newReservationView(r))
}

// CancelReservation handles DELETE /v1/reservations/:id.  Customers
// may cancel their own confirmed reservations before the showing
// starts; admins may cancel anyone's.  Responds 204 on success, 404
// when the reservation is unknown or already cancelled, 403 for a
// foreign reservation, 409 once the showing has started.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	if err := h.Svc.CancelReservation(c.Request().Context(), resID, userID, isAdmin(c)); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetReservation handles GET /v1/reservations/:id.  The lookup is
// scoped to the requesting user, so another user's reservation is
// indistinguishable from a missing one.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	r, err := h.Reservations.GetByIDForUser(c.Request().Context(), resID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newReservationView(r)})
}

// ListMyReservations handles GET /v1/my-reservations.  Optional
// query filters: status, showing_id, page, page_size.
func (h *BookingHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	f, err := reservationFilterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	list, err := h.Reservations.ListByUser(c.Request().Context(), userID, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reservationViews(list)})
}

// reservationFilterFromQuery parses the shared listing filters.
func reservationFilterFromQuery(c echo.Context) (repository.ReservationFilter, error) {
	var f repository.ReservationFilter

	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		if s != model.ReservationConfirmed && s != model.ReservationCancelled {
			return f, errors.New("invalid status filter")
		}
		f.Status = s
	}
	if s := c.QueryParam("showing_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return f, errors.New("invalid showing_id filter")
		}
		f.ShowingID = id
	}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f, nil
}
