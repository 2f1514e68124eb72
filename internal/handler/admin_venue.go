package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/model"
	"github.com/venuedesk/seat-reservation/internal/repository"
)

// maxGridDim bounds the seat grid in each direction.  A venue's
// partition is created in one bulk insert, so the grid size needs a
// ceiling somewhere; 200x200 is far beyond any real auditorium.
const maxGridDim = 200

// VenueHandler serves admin venue and seat management.  The seat
// partition is fixed at creation; only seat classes may change
// afterwards, never the grid itself.
type VenueHandler struct {
	Venues *repository.VenueRepo
	Seats  *repository.SeatRepo
}

// NewVenueHandler constructs a VenueHandler.
func NewVenueHandler(venues *repository.VenueRepo, seats *repository.SeatRepo) *VenueHandler {
	if venues == nil || seats == nil {
		panic("nil repository passed to NewVenueHandler")
	}
	return &VenueHandler{Venues: venues, Seats: seats}
}

// CreateVenue handles POST /v1/venues.  The body carries name,
// seat_rows and seat_cols; the full seat grid is generated with row
// labels A..Z, AA.. and every seat starts as STANDARD.
func (h *VenueHandler) CreateVenue(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		SeatRows uint32 `json:"seat_rows"`
		SeatCols uint32 `json:"seat_cols"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.SeatRows == 0 || body.SeatCols == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_rows and seat_cols must be positive"})
	}
	if body.SeatRows > maxGridDim || body.SeatCols > maxGridDim {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat grid too large"})
	}

	v := &model.Venue{Name: name, SeatRows: body.SeatRows, SeatCols: body.SeatCols}
	if err := h.Venues.CreateWithSeats(c.Request().Context(), v); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create venue"})
	}
	return c.JSON(http.StatusCreated, venueView(v))
}

// UpdateVenue handles PATCH /v1/venues/:id.  Only the name is
// mutable; the seat partition and capacity are fixed for the life
// of the venue.
func (h *VenueHandler) UpdateVenue(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx := c.Request().Context()
	if err := h.Venues.UpdateName(ctx, id, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrVenueNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue name already exists"})
		case errors.Is(err, repository.ErrNoChange):
			// fall through and return the current record
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	v, err := h.Venues.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, venueView(v))
}

// DeleteVenue handles DELETE /v1/venues/:id.  A venue with showings
// cannot be removed.
func (h *VenueHandler) DeleteVenue(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Venues.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrVenueNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue has showings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateSeatClass handles PATCH /v1/seats/:id.  Reclassifying a
// seat (STANDARD, PREMIUM, VIP) is the only per-seat mutation; it
// does not touch capacity.
func (h *VenueHandler) UpdateSeatClass(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		SeatClass string `json:"seat_class"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	class := strings.ToUpper(strings.TrimSpace(body.SeatClass))
	if !model.ValidSeatClass(class) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_class"})
	}

	ctx := c.Request().Context()
	if err := h.Seats.UpdateClass(ctx, id, class); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, repository.ErrNoChange):
			// already that class; report current state below
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	seat, err := h.Seats.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, seatDetailView(seat))
}

// ----- response shapes -----

type venueResp struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	SeatRows uint32 `json:"seat_rows"`
	SeatCols uint32 `json:"seat_cols"`
	Capacity uint32 `json:"capacity"`
}

func venueView(v *model.Venue) venueResp {
	return venueResp{ID: v.ID, Name: v.Name, SeatRows: v.SeatRows, SeatCols: v.SeatCols, Capacity: v.Capacity}
}

type seatResp struct {
	ID         uint64 `json:"id"`
	VenueID    uint64 `json:"venue_id"`
	Label      string `json:"label"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	SeatClass  string `json:"seat_class"`
}

func seatDetailView(s *model.Seat) seatResp {
	return seatResp{
		ID:         s.ID,
		VenueID:    s.VenueID,
		Label:      s.Label(),
		RowLabel:   s.RowLabel,
		SeatNumber: s.SeatNumber,
		SeatClass:  s.SeatClass,
	}
}
