package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup
// fails or the row is not visible to the requesting user.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationFilter narrows reservation listings.  Zero values
// mean "no filter".  Page/PageSize paginate; PageSize defaults to
// 20 when unset.
type ReservationFilter struct {
	Status    string
	ShowingID uint64
	UserID    uint64
	Page      int
	PageSize  int
}

// ReservationRepo serves read paths over reservations.  Creation
// and cancellation are ledger operations and live in LedgerStore,
// where they run under the showing lock; nothing here mutates.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo constructs a ReservationRepo.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

const reservationSelect = `SELECT id, user_id, showing_id, status, total_cents, reference_code, created_at, updated_at
	FROM reservations`

func scanReservation(sc interface{ Scan(...any) error }, r *model.Reservation) error {
	return sc.Scan(
		&r.ID,
		&r.UserID,
		&r.ShowingID,
		&r.Status,
		&r.TotalCents,
		&r.ReferenceCode,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

// GetByIDForUser retrieves a reservation only when it belongs to
// the given user.  A reservation of another user is reported as
// not found, not as forbidden: its existence is not the
// requester's business.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	q := reservationSelect + ` WHERE id = ? AND user_id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id, userID), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if err := r.attachClaims(ctx, []*model.Reservation{&res}); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByID retrieves any reservation regardless of holder.  Admin
// use only; handlers enforce the role.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := reservationSelect + ` WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if err := r.attachClaims(ctx, []*model.Reservation{&res}); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByUser returns the user's reservations, newest first, with
// claims populated.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, f ReservationFilter) ([]*model.Reservation, error) {
	f.UserID = userID
	return r.list(ctx, f)
}

// ListAll returns reservations across all users, newest first.
// Admin use only; handlers enforce the role.
func (r *ReservationRepo) ListAll(ctx context.Context, f ReservationFilter) ([]*model.Reservation, error) {
	return r.list(ctx, f)
}

func (r *ReservationRepo) list(ctx context.Context, f ReservationFilter) ([]*model.Reservation, error) {
	where := []string{}
	args := []any{}
	if f.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.ShowingID != 0 {
		where = append(where, "showing_id = ?")
		args = append(args, f.ShowingID)
	}

	q := reservationSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachClaims(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachClaims populates Claims for a batch of reservations with a
// single IN query instead of one query per reservation.
func (r *ReservationRepo) attachClaims(ctx context.Context, list []*model.Reservation) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uint64]*model.Reservation, len(list))
	ids := make([]any, 0, len(list))
	for _, res := range list {
		index[res.ID] = res
		ids = append(ids, res.ID)
	}

	q := `SELECT sc.id, sc.reservation_id, sc.showing_id, sc.seat_id, s.row_label, s.seat_number, s.seat_class, sc.created_at
	      FROM seat_claims sc
	      JOIN seats s ON s.id = sc.seat_id
	      WHERE sc.reservation_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY sc.reservation_id, sc.seat_id`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.SeatClaim
		var rowLabel string
		var seatNumber uint32
		if err := rows.Scan(&c.ID, &c.ReservationID, &c.ShowingID, &c.SeatID, &rowLabel, &seatNumber, &c.SeatClass, &c.CreatedAt); err != nil {
			return err
		}
		c.SeatLabel = model.Seat{RowLabel: rowLabel, SeatNumber: seatNumber}.Label()
		if res, ok := index[c.ReservationID]; ok {
			res.Claims = append(res.Claims, c)
		}
	}
	return rows.Err()
}
