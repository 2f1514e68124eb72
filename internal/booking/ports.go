package booking

import (
	"context"
	"time"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// Ledger is the transactional store surface the reservation
// coordinator runs against.  WithShowing opens a transaction,
// acquires the exclusive row lock for the given showing and runs
// fn with a view scoped to that transaction.  fn returning an
// error rolls everything back; nil commits.  The lock is released
// either way.  Implementations must surface an absent showing as
// a NotFound booking error and store-level lock timeouts as
// Contention.
type Ledger interface {
	WithShowing(ctx context.Context, showingID uint64, fn func(ctx context.Context, tx LedgerTx) error) error

	// FindReservation is an unlocked read used to locate the
	// showing a reservation belongs to before taking its lock.
	// Returns a NotFound booking error when the row is absent.
	FindReservation(ctx context.Context, id uint64) (*model.Reservation, error)
}

// LedgerTx is the locked, transaction-scoped view of one showing's
// ledger.  All reads observe the transaction's snapshot; all
// writes join its atomic unit.
type LedgerTx interface {
	// Showing returns the locked showing row.
	Showing() *model.Showing

	// ResolveSeats returns the seats among seatIDs that belong to
	// the showing's venue.  Ids absent from the result do not
	// belong to that venue.
	ResolveSeats(ctx context.Context, seatIDs []uint64) ([]model.Seat, error)

	// ClaimedSeatIDs returns the subset of seatIDs already held by
	// a confirmed reservation for this showing.
	ClaimedSeatIDs(ctx context.Context, seatIDs []uint64) ([]uint64, error)

	// ReferenceExists reports whether any reservation, for any
	// showing, already carries the given reference code.
	ReferenceExists(ctx context.Context, code string) (bool, error)

	// CreateReservation persists the reservation, one claim per
	// seat and the capacity decrement as part of the transaction.
	// On return r.ID, r.CreatedAt and r.Claims are populated.
	CreateReservation(ctx context.Context, r *model.Reservation, seats []model.Seat) error

	// ReservationForUpdate re-reads a reservation of this showing
	// inside the transaction, with its claims.  Returns a NotFound
	// booking error when absent.
	ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, error)

	// CancelReservation flips the reservation status to CANCELLED
	// and increments the showing's remaining capacity by claims.
	CancelReservation(ctx context.Context, id uint64, claims int) error
}

// Schedule is the store surface for administrative showing
// mutations.  WithVenue locks the venue row for the duration of
// the transaction, serializing schedule changes per venue; the
// booking path never takes this lock, so the two cannot deadlock.
type Schedule interface {
	WithVenue(ctx context.Context, venueID uint64, fn func(ctx context.Context, tx ScheduleTx) error) error

	// FindShowing is an unlocked read used to locate the venue a
	// showing belongs to before taking the venue lock.
	FindShowing(ctx context.Context, id uint64) (*model.Showing, error)
}

// ScheduleTx is the locked, transaction-scoped view of one venue's
// schedule.
type ScheduleTx interface {
	// Venue returns the locked venue row.
	Venue() *model.Venue

	// Content loads a catalog item.  Returns a NotFound booking
	// error when absent.
	Content(ctx context.Context, id uint64) (*model.Content, error)

	// Overlapping returns the showings of this venue whose
	// [starts_at, ends_at) interval overlaps [start, end).  A
	// non-zero excludeID leaves that showing out of the check.
	Overlapping(ctx context.Context, start, end time.Time, excludeID uint64) ([]model.Showing, error)

	// ShowingForUpdate locks and returns a showing of this venue.
	// Returns a NotFound booking error when absent.
	ShowingForUpdate(ctx context.Context, id uint64) (*model.Showing, error)

	// ConfirmedReservations counts confirmed reservations of a
	// showing.
	ConfirmedReservations(ctx context.Context, showingID uint64) (int, error)

	// CreateShowing persists s and fills s.ID and timestamps.
	CreateShowing(ctx context.Context, s *model.Showing) error

	// UpdateShowing persists the mutable fields of s.
	UpdateShowing(ctx context.Context, s *model.Showing) error

	// DeleteShowing removes a showing together with its cancelled
	// reservations and their claims.
	DeleteShowing(ctx context.Context, id uint64) error
}
