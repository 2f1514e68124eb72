package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// ErrVenueNotFound is returned when a venue lookup fails.
var ErrVenueNotFound = errors.New("venue not found")

// VenueRepo manages persistence for venues and their generated
// seat grids.  A venue and its seats are created in one
// transaction; the partition never changes afterwards, so there
// are no methods to add or remove individual seats.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the given DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo {
	return &VenueRepo{db: db}
}

// CreateWithSeats inserts the venue and generates its seat grid
// atomically.  Rows are labelled A, B, ... Z, AA, AB, ... and
// seats are numbered 1..cols within each row; every generated seat
// starts as STANDARD.  Capacity is rows x cols and fixed for the
// venue's lifetime.  On success v.ID, v.Capacity and timestamps
// are populated.
func (r *VenueRepo) CreateWithSeats(ctx context.Context, v *model.Venue) error {
	if v.SeatRows == 0 || v.SeatCols == 0 {
		return errors.New("seat grid dimensions required")
	}
	v.Capacity = v.SeatRows * v.SeatCols

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO venues (name, seat_rows, seat_cols, capacity) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, v.Name, v.SeatRows, v.SeatCols, v.Capacity)
	if err != nil {
		if isMySQLErr(err, mysqlDuplicateEntry) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)

	// Bulk insert the full grid in one statement.
	var sb strings.Builder
	sb.WriteString(`INSERT INTO seats (venue_id, row_label, seat_number, seat_class) VALUES `)
	args := make([]any, 0, int(v.SeatRows)*int(v.SeatCols)*4)
	first := true
	for row := uint32(0); row < v.SeatRows; row++ {
		label := rowLabelForIndex(int(row))
		for col := uint32(1); col <= v.SeatCols; col++ {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, v.ID, label, col, model.SeatClassStandard)
		}
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return err
	}

	const sel = `SELECT created_at, updated_at FROM venues WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, v.ID).Scan(&v.CreatedAt, &v.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a venue by id.  Returns ErrVenueNotFound when
// no row exists.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
	const q = `SELECT id, name, seat_rows, seat_cols, capacity, created_at, updated_at FROM venues WHERE id = ?`
	var v model.Venue
	err := r.db.QueryRowContext(ctx, q, id).Scan(&v.ID, &v.Name, &v.SeatRows, &v.SeatCols, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	return &v, nil
}

// List returns all venues ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
	const q = `SELECT id, name, seat_rows, seat_cols, capacity, created_at, updated_at FROM venues ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.SeatRows, &v.SeatCols, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateName renames a venue.  The name is the only mutable venue
// attribute; the seat partition and capacity are fixed.  Returns
// ErrVenueNotFound for an unknown id and ErrNoChange when the name
// is already current.
func (r *VenueRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	const q = `UPDATE venues SET name = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, id)
	if err != nil {
		if isMySQLErr(err, mysqlDuplicateEntry) {
			return ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		const chk = `SELECT EXISTS(SELECT 1 FROM venues WHERE id = ?)`
		if err := r.db.QueryRowContext(ctx, chk, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrVenueNotFound
		}
		return ErrNoChange
	}
	return nil
}

// Delete removes a venue and its seats.  A venue with any showing
// still scheduled cannot be deleted and yields ErrConflict; a
// venue without showings has no claims either, so the seats can go
// with it.
func (r *VenueRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var showings int
	const cnt = `SELECT COUNT(*) FROM showings WHERE venue_id = ?`
	if err := tx.QueryRowContext(ctx, cnt, id).Scan(&showings); err != nil {
		return err
	}
	if showings > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE venue_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVenueNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// rowLabelForIndex converts a zero-based row index into a
// spreadsheet-style label: 0 -> A, 25 -> Z, 26 -> AA.
func rowLabelForIndex(i int) string {
	label := ""
	n := i
	for {
		label = string(rune('A'+n%26)) + label
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return label
}
