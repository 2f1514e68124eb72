package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/venuedesk/seat-reservation/internal/booking"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// ScheduleStore implements booking.Schedule on MySQL.  Schedule
// mutations lock the venue row first, serializing administrative
// changes per venue; when a showing row lock is needed as well it
// is always taken after the venue lock, and the booking path never
// locks venues, so the two lock classes cannot form a cycle.
type ScheduleStore struct {
	db *sql.DB
}

// NewScheduleStore constructs a ScheduleStore.  db must be non-nil.
func NewScheduleStore(db *sql.DB) *ScheduleStore {
	if db == nil {
		panic("nil db passed to NewScheduleStore")
	}
	return &ScheduleStore{db: db}
}

// WithVenue opens a transaction, locks the venue row and runs fn
// against the locked view.  fn returning nil commits; any error
// rolls back.
func (s *ScheduleStore) WithVenue(ctx context.Context, venueID uint64, fn func(ctx context.Context, tx booking.ScheduleTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `SELECT id, name, seat_rows, seat_cols, capacity, created_at, updated_at
	           FROM venues WHERE id = ? FOR UPDATE`
	var v model.Venue
	err = tx.QueryRowContext(ctx, q, venueID).Scan(
		&v.ID,
		&v.Name,
		&v.SeatRows,
		&v.SeatCols,
		&v.Capacity,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.NewVenueNotFound(venueID)
		}
		return mapLockErr("lock venue", err)
	}

	if err := fn(ctx, &scheduleTx{tx: tx, venue: &v}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapLockErr("commit schedule change", err)
	}
	committed = true
	return nil
}

// FindShowing reads a showing outside any lock, used to locate the
// venue before locking it.
func (s *ScheduleStore) FindShowing(ctx context.Context, id uint64) (*model.Showing, error) {
	const q = `SELECT id, venue_id, content_id, starts_at, ends_at, price_cents, remaining_capacity, created_at, updated_at
	           FROM showings WHERE id = ?`
	var sh model.Showing
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&sh.ID,
		&sh.VenueID,
		&sh.ContentID,
		&sh.StartsAt,
		&sh.EndsAt,
		&sh.PriceCents,
		&sh.RemainingCapacity,
		&sh.CreatedAt,
		&sh.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.NewShowingNotFound(id)
		}
		return nil, err
	}
	return &sh, nil
}

// scheduleTx is the transaction-scoped view handed to the booking
// core while the venue row lock is held.
type scheduleTx struct {
	tx    *sql.Tx
	venue *model.Venue
}

func (t *scheduleTx) Venue() *model.Venue {
	return t.venue
}

func (t *scheduleTx) Content(ctx context.Context, id uint64) (*model.Content, error) {
	const q = `SELECT id, title, duration_min, created_at FROM contents WHERE id = ?`
	var c model.Content
	err := t.tx.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Title, &c.DurationMin, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.NewContentNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// Overlapping returns the venue's showings whose interval
// intersects [start, end).  The predicate treats intervals as
// half-open: a showing ending exactly at `start` or starting
// exactly at `end` does not conflict.  A non-zero excludeID leaves
// that showing out, for update checks against the showing's own
// row.
func (t *scheduleTx) Overlapping(ctx context.Context, start, end time.Time, excludeID uint64) ([]model.Showing, error) {
	q := `SELECT id, venue_id, content_id, starts_at, ends_at, price_cents, remaining_capacity, created_at, updated_at
	      FROM showings
	      WHERE venue_id = ? AND NOT (ends_at <= ? OR starts_at >= ?)`
	args := []any{t.venue.ID, start, end}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	q += ` ORDER BY starts_at`

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Showing
	for rows.Next() {
		var sh model.Showing
		if err := rows.Scan(&sh.ID, &sh.VenueID, &sh.ContentID, &sh.StartsAt, &sh.EndsAt, &sh.PriceCents, &sh.RemainingCapacity, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (t *scheduleTx) ShowingForUpdate(ctx context.Context, id uint64) (*model.Showing, error) {
	const q = `SELECT id, venue_id, content_id, starts_at, ends_at, price_cents, remaining_capacity, created_at, updated_at
	           FROM showings WHERE id = ? AND venue_id = ? FOR UPDATE`
	var sh model.Showing
	err := t.tx.QueryRowContext(ctx, q, id, t.venue.ID).Scan(
		&sh.ID,
		&sh.VenueID,
		&sh.ContentID,
		&sh.StartsAt,
		&sh.EndsAt,
		&sh.PriceCents,
		&sh.RemainingCapacity,
		&sh.CreatedAt,
		&sh.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.NewShowingNotFound(id)
		}
		return nil, mapLockErr("lock showing", err)
	}
	return &sh, nil
}

func (t *scheduleTx) ConfirmedReservations(ctx context.Context, showingID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE showing_id = ? AND status = 'CONFIRMED'`
	var n int
	if err := t.tx.QueryRowContext(ctx, q, showingID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *scheduleTx) CreateShowing(ctx context.Context, sh *model.Showing) error {
	const q = `INSERT INTO showings (venue_id, content_id, starts_at, ends_at, price_cents, remaining_capacity)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, sh.VenueID, sh.ContentID, sh.StartsAt, sh.EndsAt, sh.PriceCents, sh.RemainingCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sh.ID = uint64(id)

	const sel = `SELECT created_at, updated_at FROM showings WHERE id = ?`
	return t.tx.QueryRowContext(ctx, sel, sh.ID).Scan(&sh.CreatedAt, &sh.UpdatedAt)
}

func (t *scheduleTx) UpdateShowing(ctx context.Context, sh *model.Showing) error {
	const q = `UPDATE showings SET content_id = ?, starts_at = ?, ends_at = ?, price_cents = ? WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q, sh.ContentID, sh.StartsAt, sh.EndsAt, sh.PriceCents, sh.ID)
	return err
}

// DeleteShowing removes the showing together with any cancelled
// reservations and their claims.  The caller has verified that no
// confirmed reservations exist, under the venue lock.
func (t *scheduleTx) DeleteShowing(ctx context.Context, id uint64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM seat_claims WHERE showing_id = ?`, id); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM reservations WHERE showing_id = ?`, id); err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM showings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.NewShowingNotFound(id)
	}
	return nil
}
