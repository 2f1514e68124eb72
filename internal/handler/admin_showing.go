package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/booking"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// ScheduleService is the slice of the scheduler the HTTP layer
// needs.  booking.Scheduler satisfies it; tests substitute a stub.
type ScheduleService interface {
	CreateShowing(ctx context.Context, venueID, contentID uint64, start time.Time, priceCents uint32) (*model.Showing, error)
	UpdateShowing(ctx context.Context, showingID uint64, changes booking.ShowingChanges) (*model.Showing, error)
	DeleteShowing(ctx context.Context, showingID uint64) error
}

// ShowingHandler serves admin schedule management.  Every mutation
// routes through the scheduler, which runs the overlap check under
// the venue lock; the handler only translates HTTP to scheduler
// calls and scheduler errors back to HTTP.
type ShowingHandler struct {
	Svc ScheduleService
}

// NewShowingHandler constructs a ShowingHandler.
func NewShowingHandler(svc ScheduleService) *ShowingHandler {
	if svc == nil {
		panic("nil service passed to NewShowingHandler")
	}
	return &ShowingHandler{Svc: svc}
}

// parseStartTime accepts RFC3339 ("2026-03-01T18:30:00Z") and the
// plain "2006-01-02 15:04:05" form, always interpreted as UTC.
func parseStartTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// CreateShowing handles POST /v1/showings.  The body carries
// venue_id, content_id, starts_at and price_cents; the end time is
// derived from the content's duration, never supplied.  Responds
// 201 with the created showing, 404 for an unknown venue or
// content, 409 with the blocking showing ids when the slot
// overlaps an existing showing.
func (h *ShowingHandler) CreateShowing(c echo.Context) error {
	var body struct {
		VenueID    uint64 `json:"venue_id"`
		ContentID  uint64 `json:"content_id"`
		StartsAt   string `json:"starts_at"`
		PriceCents uint32 `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id is required"})
	}
	if body.ContentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content_id is required"})
	}
	start, ok := parseStartTime(body.StartsAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
	}

	sh, err := h.Svc.CreateShowing(c.Request().Context(), body.VenueID, body.ContentID, start, body.PriceCents)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, showingView(sh))
}

// UpdateShowing handles PUT/PATCH /v1/showings/:id.  starts_at,
// content_id and price_cents are each optional; omitted fields keep
// their value.  Moving the showing in time requires zero confirmed
// reservations and re-checks the venue schedule for overlaps, so a
// 409 carries either the blocking showing ids or the reservation
// conflict.  A price-only change never conflicts.
func (h *ShowingHandler) UpdateShowing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		StartsAt   *string `json:"starts_at"`
		ContentID  *uint64 `json:"content_id"`
		PriceCents *uint32 `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var changes booking.ShowingChanges
	if body.StartsAt != nil {
		start, ok := parseStartTime(*body.StartsAt)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at format"})
		}
		changes.StartsAt = &start
	}
	if body.ContentID != nil {
		if *body.ContentID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content_id"})
		}
		changes.ContentID = body.ContentID
	}
	changes.PriceCents = body.PriceCents

	sh, err := h.Svc.UpdateShowing(c.Request().Context(), id, changes)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, showingView(sh))
}

// DeleteShowing handles DELETE /v1/showings/:id.  A showing with
// confirmed reservations cannot be removed; cancelled reservations
// and their claims are destroyed with it.
func (h *ShowingHandler) DeleteShowing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.DeleteShowing(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- response shape -----

type showingResp struct {
	ID                uint64    `json:"id"`
	VenueID           uint64    `json:"venue_id"`
	ContentID         uint64    `json:"content_id"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	PriceCents        uint32    `json:"price_cents"`
	RemainingCapacity uint32    `json:"remaining_capacity"`
}

func showingView(sh *model.Showing) showingResp {
	return showingResp{
		ID:                sh.ID,
		VenueID:           sh.VenueID,
		ContentID:         sh.ContentID,
		StartsAt:          sh.StartsAt,
		EndsAt:            sh.EndsAt,
		PriceCents:        sh.PriceCents,
		RemainingCapacity: sh.RemainingCapacity,
	}
}
