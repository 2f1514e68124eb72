package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/repository"
)

// PublicHandler serves unauthenticated browse endpoints: venues,
// seat layouts, showings and per-showing seat availability.  All of
// them are read-only and sit behind the response cache; a booking
// re-validates everything under the showing lock, so serving
// slightly stale availability here is harmless.
type PublicHandler struct {
	Venues   *repository.VenueRepo
	Seats    *repository.SeatRepo
	Showings *repository.ShowingRepo
	Contents *repository.ContentRepo
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(venues *repository.VenueRepo, seats *repository.SeatRepo, showings *repository.ShowingRepo, contents *repository.ContentRepo) *PublicHandler {
	if venues == nil || seats == nil || showings == nil || contents == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Venues: venues, Seats: seats, Showings: showings, Contents: contents}
}

// ListVenues handles GET /v1/venues.
func (h *PublicHandler) ListVenues(c echo.Context) error {
	venues, err := h.Venues.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]venueResp, 0, len(venues))
	for i := range venues {
		out = append(out, venueView(&venues[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetVenue handles GET /v1/venues/:id.
func (h *PublicHandler) GetVenue(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	v, err := h.Venues.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, venueView(v))
}

// ListVenueSeats handles GET /v1/venues/:id/seats and returns the
// flat seat list ordered by row and number.
func (h *PublicHandler) ListVenueSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Venues.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.ListByVenue(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]seatResp, 0, len(seats))
	for i := range seats {
		out = append(out, seatDetailView(&seats[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"venue_id": id, "count": len(out), "items": out})
}

// GetVenueSeatLayout handles GET /v1/venues/:id/seats/layout and
// returns the seat grid grouped by row, rows ordered A, B, ... AA.
func (h *PublicHandler) GetVenueSeatLayout(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	v, err := h.Venues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.ListByVenue(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	type layoutSeat struct {
		SeatID     uint64 `json:"seat_id"`
		SeatNumber uint32 `json:"seat_number"`
		SeatClass  string `json:"seat_class"`
	}
	type layoutRow struct {
		RowLabel string       `json:"row_label"`
		Seats    []layoutSeat `json:"seats"`
	}

	byRow := make(map[string][]layoutSeat)
	for _, s := range seats {
		byRow[s.RowLabel] = append(byRow[s.RowLabel], layoutSeat{SeatID: s.ID, SeatNumber: s.SeatNumber, SeatClass: s.SeatClass})
	}
	labels := make([]string, 0, len(byRow))
	for lbl := range byRow {
		labels = append(labels, lbl)
	}
	// Shorter labels sort first so Z precedes AA.
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) < len(labels[j])
		}
		return labels[i] < labels[j]
	})
	rows := make([]layoutRow, 0, len(labels))
	for _, lbl := range labels {
		rowSeats := byRow[lbl]
		sort.Slice(rowSeats, func(i, j int) bool { return rowSeats[i].SeatNumber < rowSeats[j].SeatNumber })
		rows = append(rows, layoutRow{RowLabel: lbl, Seats: rowSeats})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"venue_id":  v.ID,
		"seat_rows": v.SeatRows,
		"seat_cols": v.SeatCols,
		"capacity":  v.Capacity,
		"rows":      rows,
	})
}

// ListVenueShowings handles GET /v1/venues/:id/showings and returns
// the venue's upcoming showings, soonest first.
func (h *PublicHandler) ListVenueShowings(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Venues.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	showings, err := h.Showings.ListUpcomingByVenue(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": showings})
}

type contentResp struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	DurationMin uint32 `json:"duration_min"`
}

// ListContents handles GET /v1/contents and returns catalog items
// that currently have upcoming showings.
func (h *PublicHandler) ListContents(c echo.Context) error {
	contents, err := h.Contents.ListPlaying(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]contentResp, 0, len(contents))
	for _, ct := range contents {
		out = append(out, contentResp{ID: ct.ID, Title: ct.Title, DurationMin: ct.DurationMin})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetContent handles GET /v1/contents/:id and returns the catalog
// item together with its upcoming showings across all venues.
func (h *PublicHandler) GetContent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	ct, err := h.Contents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "content not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	showings, err := h.Showings.ListUpcomingByContent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           ct.ID,
		"title":        ct.Title,
		"duration_min": ct.DurationMin,
		"showings":     showings,
	})
}

// GetShowing handles GET /v1/showings/:id.
func (h *PublicHandler) GetShowing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := h.Showings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}

// GetShowingSeats handles GET /v1/showings/:id/seats and returns
// every seat of the showing's venue with its availability.  A seat
// is AVAILABLE unless a confirmed reservation claims it; cancelled
// claims do not block.  This read takes no lock, so a seat shown
// AVAILABLE here can still be lost to a concurrent booking; the
// booking endpoint is the authority.
func (h *PublicHandler) GetShowingSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	d, err := h.Showings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.ListByVenue(ctx, d.VenueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	claimed, err := h.Showings.ClaimedSeats(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	type availSeat struct {
		SeatID    uint64 `json:"seat_id"`
		Label     string `json:"label"`
		SeatClass string `json:"seat_class"`
		Status    string `json:"status"`
	}
	out := make([]availSeat, 0, len(seats))
	for _, s := range seats {
		status := "AVAILABLE"
		if _, taken := claimed[s.ID]; taken {
			status = "RESERVED"
		}
		out = append(out, availSeat{SeatID: s.ID, Label: s.Label(), SeatClass: s.SeatClass, Status: status})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showing_id":         d.ID,
		"starts_at":          d.StartsAt,
		"price_cents":        d.PriceCents,
		"remaining_capacity": d.RemainingCapacity,
		"seats":              out,
	})
}

// SearchShowings handles GET /v1/search/showings.  Query params:
// title and venue (case-insensitive substrings), time ("upcoming"
// default, "active", "any"), page and page_size.
func (h *PublicHandler) SearchShowings(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.ShowingSearchQuery{
		Title:      strings.TrimSpace(c.QueryParam("title")),
		Venue:      strings.TrimSpace(c.QueryParam("venue")),
		TimeFilter: strings.ToLower(strings.TrimSpace(c.QueryParam("time"))),
		Page:       page,
		PageSize:   ps,
	}
	items, total, err := h.Showings.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}
