// Package handler exposes the HTTP surface: auth, public browsing,
// customer booking and admin management endpoints.  Handlers parse
// and validate transport concerns, then delegate to the booking core
// or the repositories; they never reach into SQL themselves.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/booking"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// getUserID extracts the user_id JWTAuth stored in the context.
// JWT numeric claims decode as float64; tests inject uint64 directly.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated request carries the
// ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

// bookingError renders a typed booking error as JSON.  The status
// follows the error kind; the stable code plus any offending seat
// labels or showing ids ride along so clients can react without
// parsing messages.  Contention maps to 503 with Retry-After, since
// the same request may succeed once the lock holder finishes.
func bookingError(c echo.Context, err error) error {
	be, ok := booking.AsError(err)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var status int
	switch be.Kind {
	case booking.KindNotFound:
		status = http.StatusNotFound
	case booking.KindInvalidInput:
		status = http.StatusBadRequest
	case booking.KindStateConflict:
		status = http.StatusConflict
	case booking.KindPermissionDenied:
		status = http.StatusForbidden
	case booking.KindResourceExhausted, booking.KindContention:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	if booking.Retryable(err) {
		c.Response().Header().Set("Retry-After", "1")
	}

	resp := echo.Map{"error": be.Message, "code": be.Code}
	if len(be.Seats) > 0 {
		resp["seats"] = be.Seats
	}
	if len(be.Showings) > 0 {
		resp["showings"] = be.Showings
	}
	return c.JSON(status, resp)
}

// ----- shared response shapes -----

type seatView struct {
	SeatID uint64 `json:"seat_id"`
	Label  string `json:"label"`
	Class  string `json:"seat_class"`
}

type reservationView struct {
	ID            uint64     `json:"id"`
	ShowingID     uint64     `json:"showing_id"`
	UserID        uint64     `json:"user_id"`
	Status        string     `json:"status"`
	ReferenceCode string     `json:"reference_code"`
	TotalCents    uint64     `json:"total_cents"`
	Seats         []seatView `json:"seats"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newReservationView(r *model.Reservation) reservationView {
	seats := make([]seatView, 0, len(r.Claims))
	for _, cl := range r.Claims {
		seats = append(seats, seatView{SeatID: cl.SeatID, Label: cl.SeatLabel, Class: cl.SeatClass})
	}
	return reservationView{
		ID:            r.ID,
		ShowingID:     r.ShowingID,
		UserID:        r.UserID,
		Status:        r.Status,
		ReferenceCode: r.ReferenceCode,
		TotalCents:    r.TotalCents,
		Seats:         seats,
		CreatedAt:     r.CreatedAt,
	}
}

func reservationViews(list []*model.Reservation) []reservationView {
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, newReservationView(r))
	}
	return out
}
