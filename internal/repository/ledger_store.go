package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/venuedesk/seat-reservation/internal/booking"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// LedgerStore implements booking.Ledger on MySQL.  The exclusive
// per-showing lock the booking core requires is an InnoDB row lock
// taken with SELECT ... FOR UPDATE on the showings row; it is held
// for the lifetime of the transaction and released on commit or
// rollback.  Concurrent transactions targeting the same showing
// block on this select, which is the only blocking point in the
// booking path.
type LedgerStore struct {
	db *sql.DB
}

// NewLedgerStore constructs a LedgerStore.  db must be non-nil.
func NewLedgerStore(db *sql.DB) *LedgerStore {
	if db == nil {
		panic("nil db passed to NewLedgerStore")
	}
	return &LedgerStore{db: db}
}

// WithShowing opens a transaction, locks the showing row and runs
// fn against the locked view.  fn returning nil commits; any error
// rolls back.  A missing showing surfaces as SHOWING_NOT_FOUND and
// a lock wait timeout as the retryable contention kind.
func (s *LedgerStore) WithShowing(ctx context.Context, showingID uint64, fn func(ctx context.Context, tx booking.LedgerTx) error) error {
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

	const q = `SELECT id, venue_id, content_id, starts_at, ends_at, price_cents, remaining_capacity, created_at, updated_at
	           FROM showings WHERE id = ? FOR UPDATE`
	var sh model.Showing
	err = tx.QueryRowContext(ctx, q, showingID).Scan(
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
			return booking.NewShowingNotFound(showingID)
		}
		return mapLockErr("lock showing", err)
	}

	if err := fn(ctx, &ledgerTx{tx: tx, showing: &sh}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapLockErr("commit booking", err)
	}
	committed = true
	return nil
}

// FindReservation reads a reservation outside any lock.  Used by
// the cancellation path to locate the showing before locking it.
func (s *LedgerStore) FindReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, showing_id, status, total_cents, reference_code, created_at, updated_at
	           FROM reservations WHERE id = ?`
	var r model.Reservation
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID,
		&r.UserID,
		&r.ShowingID,
		&r.Status,
		&r.TotalCents,
		&r.ReferenceCode,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.NewReservationNotFound(id)
		}
		return nil, err
	}
	return &r, nil
}

// ledgerTx is the transaction-scoped view handed to the booking
// core while the showing row lock is held.
type ledgerTx struct {
	tx      *sql.Tx
	showing *model.Showing
}

func (t *ledgerTx) Showing() *model.Showing {
	return t.showing
}

// ResolveSeats returns the seats among seatIDs that belong to the
// locked showing's venue, ordered by id.
func (t *ledgerTx) ResolveSeats(ctx context.Context, seatIDs []uint64) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	q := `SELECT id, venue_id, row_label, seat_number, seat_class, created_at, updated_at
	      FROM seats WHERE venue_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) ORDER BY id`
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, t.showing.VenueID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.VenueID, &s.RowLabel, &s.SeatNumber, &s.SeatClass, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ClaimedSeatIDs returns the subset of seatIDs already bound to a
// confirmed reservation of the locked showing.  Claims whose
// reservation was cancelled do not count.
func (t *ledgerTx) ClaimedSeatIDs(ctx context.Context, seatIDs []uint64) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	q := `SELECT sc.seat_id
	      FROM seat_claims sc
	      JOIN reservations r ON r.id = sc.reservation_id
	      WHERE sc.showing_id = ? AND r.status = 'CONFIRMED' AND sc.seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, t.showing.ID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		claimed = append(claimed, id)
	}
	return claimed, rows.Err()
}

// ReferenceExists checks the code against every reservation ever
// created, across all showings.  No lock is taken; the unique
// index on reference_code backstops the race between this check
// and the insert.
func (t *ledgerTx) ReferenceExists(ctx context.Context, code string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE reference_code = ?)`
	var exists bool
	if err := t.tx.QueryRowContext(ctx, q, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateReservation writes the reservation row, its claims and the
// capacity decrement as one unit inside the open transaction.  The
// caller has already validated seats and capacity under the lock.
func (t *ledgerTx) CreateReservation(ctx context.Context, r *model.Reservation, seats []model.Seat) error {
	const ins = `INSERT INTO reservations (user_id, showing_id, status, total_cents, reference_code)
	             VALUES (?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, ins, r.UserID, r.ShowingID, r.Status, r.TotalCents, r.ReferenceCode)
	if err != nil {
		if isMySQLErr(err, mysqlDuplicateEntry) {
			// Another transaction took this reference code between
			// the existence check and the insert.  Retryable.
			return booking.NewContention("reference insert", err)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)

	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	if err := t.tx.QueryRowContext(ctx, sel, r.ID).Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return err
	}

	// Bulk insert one claim per seat.
	var sb strings.Builder
	sb.WriteString(`INSERT INTO seat_claims (reservation_id, showing_id, seat_id) VALUES `)
	args := make([]any, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, r.ID, r.ShowingID, s.ID)
	}
	if _, err := t.tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return err
	}

	const dec = `UPDATE showings SET remaining_capacity = remaining_capacity - ?
	             WHERE id = ? AND remaining_capacity >= ?`
	n := len(seats)
	upd, err := t.tx.ExecContext(ctx, dec, n, r.ShowingID, n)
	if err != nil {
		return err
	}
	affected, err := upd.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Counter would go negative; cannot happen while the
		// capacity check runs under the same lock.
		return errors.New("remaining capacity underflow")
	}

	r.Claims = make([]model.SeatClaim, len(seats))
	for i, s := range seats {
		r.Claims[i] = model.SeatClaim{
			ReservationID: r.ID,
			ShowingID:     r.ShowingID,
			SeatID:        s.ID,
			SeatLabel:     s.Label(),
			SeatClass:     s.SeatClass,
		}
	}
	return nil
}

// ReservationForUpdate re-reads a reservation of the locked
// showing inside the transaction, locking its row, and loads its
// claims with seat labels.
func (t *ledgerTx) ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, showing_id, status, total_cents, reference_code, created_at, updated_at
	           FROM reservations WHERE id = ? AND showing_id = ? FOR UPDATE`
	var r model.Reservation
	err := t.tx.QueryRowContext(ctx, q, id, t.showing.ID).Scan(
		&r.ID,
		&r.UserID,
		&r.ShowingID,
		&r.Status,
		&r.TotalCents,
		&r.ReferenceCode,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.NewReservationNotFound(id)
		}
		return nil, mapLockErr("lock reservation", err)
	}

	const cq = `SELECT sc.id, sc.reservation_id, sc.showing_id, sc.seat_id, s.row_label, s.seat_number, s.seat_class, sc.created_at
	            FROM seat_claims sc
	            JOIN seats s ON s.id = sc.seat_id
	            WHERE sc.reservation_id = ? ORDER BY sc.seat_id`
	rows, err := t.tx.QueryContext(ctx, cq, r.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c model.SeatClaim
		var rowLabel string
		var seatNumber uint32
		if err := rows.Scan(&c.ID, &c.ReservationID, &c.ShowingID, &c.SeatID, &rowLabel, &seatNumber, &c.SeatClass, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.SeatLabel = model.Seat{RowLabel: rowLabel, SeatNumber: seatNumber}.Label()
		r.Claims = append(r.Claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &r, nil
}

// CancelReservation flips the status and gives the claimed seats
// back to the counter.  The status predicate makes a double cancel
// a no-op at the SQL level even if a caller slipped past the
// coordinator's checks.
func (t *ledgerTx) CancelReservation(ctx context.Context, id uint64, claims int) error {
	const upd = `UPDATE reservations SET status = 'CANCELLED' WHERE id = ? AND status = 'CONFIRMED'`
	res, err := t.tx.ExecContext(ctx, upd, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.NewReservationNotFound(id)
	}

	const inc = `UPDATE showings s
	             JOIN venues v ON v.id = s.venue_id
	             SET s.remaining_capacity = s.remaining_capacity + ?
	             WHERE s.id = ? AND s.remaining_capacity + ? <= v.capacity`
	res, err = t.tx.ExecContext(ctx, inc, claims, t.showing.ID, claims)
	if err != nil {
		return err
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Counter would exceed venue capacity; indicates drift.
		return errors.New("remaining capacity overflow")
	}
	return nil
}

// placeholders returns n comma-separated SQL placeholders, e.g.
// "?, ?, ?" for n = 3.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
