package booking

import (
	"context"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// CancelReservation reverses a confirmed reservation and restores
// the showing's remaining capacity by the number of its claims.
// It runs under the same exclusive showing lock as creation, so a
// cancellation and a booking for one showing can never interleave.
//
// A reservation that does not exist and one that is already
// cancelled are indistinguishable to the caller: both fail with
// RESERVATION_NOT_FOUND, and a repeated cancellation therefore
// never double-increments the capacity counter.  NOT_OWNER rejects
// requesters other than the holder unless isAdmin is set.
// PAST_SHOWING rejects cancellation once the showing has started;
// the ledger is left untouched.  Claims stay recorded after a
// successful cancellation but stop counting toward the claimed
// set, so the same seats can be booked again.
func (c *Coordinator) CancelReservation(ctx context.Context, reservationID, requesterID uint64, isAdmin bool) error {
	// Unlocked pre-read to learn which showing to lock.  Status
	// is re-checked under the lock; this early exit only avoids
	// taking a lock for requests that cannot succeed.
	pre, err := c.ledger.FindReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if pre.Status != model.ReservationConfirmed {
		return NewReservationNotFound(reservationID)
	}

	var cancelled *model.Reservation
	err = c.ledger.WithShowing(ctx, pre.ShowingID, func(ctx context.Context, tx LedgerTx) error {
		r, err := tx.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.Status != model.ReservationConfirmed {
			return NewReservationNotFound(reservationID)
		}
		if r.UserID != requesterID && !isAdmin {
			return errNotOwner(reservationID)
		}
		if !c.clock.Now().Before(tx.Showing().StartsAt) {
			return errPastShowing(tx.Showing().ID)
		}
		if err := tx.CancelReservation(ctx, r.ID, len(r.Claims)); err != nil {
			return err
		}
		r.Status = model.ReservationCancelled
		cancelled = r
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info().
		Uint64("reservation_id", cancelled.ID).
		Str("reference", cancelled.ReferenceCode).
		Uint64("showing_id", cancelled.ShowingID).
		Uint64("requester_id", requesterID).
		Bool("admin", isAdmin).
		Int("seats_released", len(cancelled.Claims)).
		Msg("reservation cancelled")
	c.events.ReservationCancelled(ctx, cancelled)
	return nil
}
