package booking

import (
	"context"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/venuedesk/seat-reservation/internal/clock"
	"github.com/venuedesk/seat-reservation/internal/model"
)

// Events receives notifications after a booking transaction has
// committed.  Implementations must be best-effort: a delivery
// failure is logged by the implementation and never fails the
// request that produced it.
type Events interface {
	ReservationConfirmed(ctx context.Context, r *model.Reservation)
	ReservationCancelled(ctx context.Context, r *model.Reservation)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) ReservationConfirmed(context.Context, *model.Reservation) {}
func (NopEvents) ReservationCancelled(context.Context, *model.Reservation) {}

// Coordinator drives reservation creation and cancellation.  Both
// operations run inside a single transaction holding the exclusive
// lock on the target showing's row, so all validation observes
// either the committed or the rolled-back effects of concurrent
// requests for that showing, never a partial state.  Requests for
// different showings share no lock and proceed in parallel.
type Coordinator struct {
	ledger Ledger
	refs   *ReferenceGenerator
	clock  clock.Clock
	events Events
	log    zerolog.Logger
}

// NewCoordinator wires the coordinator's dependencies.  All of
// them must be non-nil; pass NopEvents when eventing is disabled.
func NewCoordinator(ledger Ledger, refs *ReferenceGenerator, clk clock.Clock, events Events, log zerolog.Logger) *Coordinator {
	if ledger == nil || refs == nil || clk == nil || events == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{ledger: ledger, refs: refs, clock: clk, events: events, log: log}
}

// CreateReservation books the given seats of a showing for holder
// holderID and returns the confirmed reservation with its claims.
//
// Failure modes, in check order: INVALID_ARGUMENT for an empty or
// duplicated seat set, SHOWING_NOT_FOUND, SHOWING_IN_PAST once the
// showing has started, INVALID_SEATS listing every id that does
// not belong to the showing's venue, SEAT_ALREADY_RESERVED listing
// every requested seat already held by a confirmed reservation
// (all conflicts, not just the first, so the caller can retry with
// a disjoint set), INSUFFICIENT_CAPACITY when the counter cannot
// cover the request, REFERENCE_EXHAUSTED when no free code was
// found within the attempt budget.  Any failure leaves no trace in
// the store.
func (c *Coordinator) CreateReservation(ctx context.Context, showingID uint64, seatIDs []uint64, holderID uint64) (*model.Reservation, error) {
	if len(seatIDs) == 0 {
		return nil, errInvalidInput("at least one seat is required")
	}
	if dup := firstDuplicate(seatIDs); dup != 0 {
		return nil, errInvalidInput("duplicate seat id " + strconv.FormatUint(dup, 10) + " in request")
	}

	var out *model.Reservation
	err := c.ledger.WithShowing(ctx, showingID, func(ctx context.Context, tx LedgerTx) error {
		sh := tx.Showing()
		if !c.clock.Now().Before(sh.StartsAt) {
			return errShowingInPast(sh.ID)
		}

		seats, err := tx.ResolveSeats(ctx, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return errInvalidSeats(missingIDs(seatIDs, seats))
		}

		claimed, err := tx.ClaimedSeatIDs(ctx, seatIDs)
		if err != nil {
			return err
		}
		if len(claimed) > 0 {
			return errSeatsAlreadyReserved(labelsFor(claimed, seats))
		}

		// With no claimed seats among the request this cannot
		// trigger unless the counter has drifted from the claims.
		if sh.RemainingCapacity < uint32(len(seatIDs)) {
			return errInsufficientCapacity(sh.RemainingCapacity, len(seatIDs))
		}

		code, err := c.refs.Unique(ctx, tx.ReferenceExists)
		if err != nil {
			return err
		}

		r := &model.Reservation{
			UserID:        holderID,
			ShowingID:     sh.ID,
			Status:        model.ReservationConfirmed,
			TotalCents:    uint64(sh.PriceCents) * uint64(len(seatIDs)),
			ReferenceCode: code,
		}
		if err := tx.CreateReservation(ctx, r, seats); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Uint64("reservation_id", out.ID).
		Str("reference", out.ReferenceCode).
		Uint64("showing_id", out.ShowingID).
		Uint64("user_id", out.UserID).
		Int("seats", len(out.Claims)).
		Msg("reservation confirmed")
	c.events.ReservationConfirmed(ctx, out)
	return out, nil
}

// firstDuplicate returns the first seat id that appears more than
// once, or 0 when all ids are distinct.
func firstDuplicate(ids []uint64) uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return 0
}

// missingIDs lists, in ascending order, the requested ids that did
// not resolve to a seat of the showing's venue.
func missingIDs(requested []uint64, seats []model.Seat) []string {
	have := make(map[uint64]struct{}, len(seats))
	for _, s := range seats {
		have[s.ID] = struct{}{}
	}
	missing := make([]uint64, 0, len(requested))
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	out := make([]string, len(missing))
	for i, id := range missing {
		out[i] = strconv.FormatUint(id, 10)
	}
	return out
}

// labelsFor maps the conflicting seat ids to their public labels,
// ordered by seat id for a stable payload.
func labelsFor(ids []uint64, seats []model.Seat) []string {
	byID := make(map[uint64]model.Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}
	sorted := append([]uint64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if s, ok := byID[id]; ok {
			out = append(out, s.Label())
		} else {
			out = append(out, strconv.FormatUint(id, 10))
		}
	}
	return out
}
