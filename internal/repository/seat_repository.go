package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup fails.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo reads the seat grid and updates seat classifications.
// Seats are created only together with their venue and never
// individually; see VenueRepo.CreateWithSeats.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// GetByID retrieves a single seat.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, venue_id, row_label, seat_number, seat_class, created_at, updated_at FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.VenueID, &s.RowLabel, &s.SeatNumber, &s.SeatClass, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByVenue returns every seat of a venue ordered by row and
// number, the order the layout endpoint renders them in.
func (r *SeatRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Seat, error) {
	const q = `SELECT id, venue_id, row_label, seat_number, seat_class, created_at, updated_at
	           FROM seats WHERE venue_id = ? ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.VenueID, &s.RowLabel, &s.SeatNumber, &s.SeatClass, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateClass changes a seat's classification.  Classification is
// the only mutable seat attribute.  Returns ErrSeatNotFound for an
// unknown id and ErrNoChange when the class is already set.
func (r *SeatRepo) UpdateClass(ctx context.Context, id uint64, class string) error {
	const q = `UPDATE seats SET seat_class = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, class, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		const chk = `SELECT EXISTS(SELECT 1 FROM seats WHERE id = ?)`
		if err := r.db.QueryRowContext(ctx, chk, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrSeatNotFound
		}
		return ErrNoChange
	}
	return nil
}
