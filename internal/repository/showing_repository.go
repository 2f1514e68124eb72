package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// ErrShowingNotFound is returned when a showing lookup fails.
var ErrShowingNotFound = errors.New("showing not found")

// ShowingRow is the browse projection of a showing joined with its
// venue and content.  Handlers shape their public responses from
// it; callers needing the bare entity use booking's stores.
type ShowingRow struct {
	ID                uint64    `json:"id"`
	VenueID           uint64    `json:"venue_id"`
	VenueName         string    `json:"venue_name"`
	ContentID         uint64    `json:"content_id"`
	Title             string    `json:"title"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	PriceCents        uint32    `json:"price_cents"`
	RemainingCapacity uint32    `json:"remaining_capacity"`
}

// ShowingSearchQuery defines filters and pagination for searching
// showings.  TimeFilter accepts "upcoming" (default), "active"
// (not yet ended) and "any".
type ShowingSearchQuery struct {
	Title      string
	Venue      string
	TimeFilter string
	Page       int
	PageSize   int
}

// ShowingRepo serves read paths over showings: public browsing,
// search and seat availability.  All mutations go through the
// booking stores so they run under the proper locks.
type ShowingRepo struct {
	db *sql.DB
}

// NewShowingRepo constructs a ShowingRepo with the given DB handle.
func NewShowingRepo(db *sql.DB) *ShowingRepo {
	return &ShowingRepo{db: db}
}

const showingRowSelect = `SELECT
		s.id,
		s.venue_id,
		v.name AS venue_name,
		s.content_id,
		c.title,
		s.starts_at,
		s.ends_at,
		s.price_cents,
		s.remaining_capacity
	FROM showings s
	JOIN venues v   ON v.id = s.venue_id
	JOIN contents c ON c.id = s.content_id`

func scanShowingRow(sc interface{ Scan(...any) error }, d *ShowingRow) error {
	return sc.Scan(
		&d.ID,
		&d.VenueID,
		&d.VenueName,
		&d.ContentID,
		&d.Title,
		&d.StartsAt,
		&d.EndsAt,
		&d.PriceCents,
		&d.RemainingCapacity,
	)
}

// GetByID retrieves one showing with its joined names.
func (r *ShowingRepo) GetByID(ctx context.Context, id uint64) (*ShowingRow, error) {
	q := showingRowSelect + ` WHERE s.id = ?`
	var d ShowingRow
	if err := scanShowingRow(r.db.QueryRowContext(ctx, q, id), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowingNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListUpcomingByVenue returns a venue's showings that have not yet
// started, soonest first.
func (r *ShowingRepo) ListUpcomingByVenue(ctx context.Context, venueID uint64) ([]ShowingRow, error) {
	q := showingRowSelect + ` WHERE s.venue_id = ? AND s.starts_at >= NOW() ORDER BY s.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShowingRow
	for rows.Next() {
		var d ShowingRow
		if err := scanShowingRow(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListUpcomingByContent returns a catalog item's showings across all
// venues that have not yet started, soonest first.
func (r *ShowingRepo) ListUpcomingByContent(ctx context.Context, contentID uint64) ([]ShowingRow, error) {
	q := showingRowSelect + ` WHERE s.content_id = ? AND s.starts_at >= NOW() ORDER BY s.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShowingRow
	for rows.Next() {
		var d ShowingRow
		if err := scanShowingRow(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Search returns showings matching the query plus the total match
// count for pagination.
func (r *ShowingRepo) Search(ctx context.Context, q ShowingSearchQuery) ([]ShowingRow, int64, error) {
	where := []string{}
	args := []any{}

	switch strings.ToLower(q.TimeFilter) {
	case "any":
	case "active":
		where = append(where, "s.ends_at >= NOW()")
	default:
		where = append(where, "s.starts_at >= NOW()")
	}

	if q.Title != "" {
		where = append(where, "LOWER(c.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.Venue != "" {
		where = append(where, "LOWER(v.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Venue)+"%")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM showings s
		JOIN venues v   ON v.id = s.venue_id
		JOIN contents c ON c.id = s.content_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := showingRowSelect + `
		WHERE ` + cond + `
		ORDER BY s.starts_at ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]ShowingRow, 0, limit)
	for rows.Next() {
		var d ShowingRow
		if err := scanShowingRow(rows, &d); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ClaimedSeats returns the ids of seats held by confirmed
// reservations of a showing.  This is the unlocked read behind the
// public availability endpoint; the booking path re-checks under
// the showing lock, so stale reads here cost a 409 at worst, never
// a double booking.
func (r *ShowingRepo) ClaimedSeats(ctx context.Context, showingID uint64) (map[uint64]struct{}, error) {
	const q = `SELECT sc.seat_id
	           FROM seat_claims sc
	           JOIN reservations r ON r.id = sc.reservation_id
	           WHERE sc.showing_id = ? AND r.status = 'CONFIRMED'`
	rows, err := r.db.QueryContext(ctx, q, showingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claimed := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		claimed[id] = struct{}{}
	}
	return claimed, rows.Err()
}
