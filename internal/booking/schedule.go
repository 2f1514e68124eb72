package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuedesk/seat-reservation/internal/model"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd)
// and [bStart, bEnd) intersect.  Touching edges do not conflict:
// a showing ending at 12:00 and one starting at 12:00 coexist.
// The rule covers full containment, partial overlap and exact
// match alike.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ShowingChanges carries the mutable fields of an update request.
// Nil means "leave unchanged".  Start or content changes are
// time-affecting: they move the showing's interval and re-trigger
// the overlap check.
type ShowingChanges struct {
	StartsAt   *time.Time
	PriceCents *uint32
	ContentID  *uint64
}

func (ch ShowingChanges) timeAffecting() bool {
	return ch.StartsAt != nil || ch.ContentID != nil
}

func (ch ShowingChanges) empty() bool {
	return ch.StartsAt == nil && ch.PriceCents == nil && ch.ContentID == nil
}

// Scheduler guards a venue's time schedule.  Every mutation runs
// under the venue row lock, so two administrative requests for one
// venue are serialized and the no-overlap invariant cannot be
// broken by a check-then-write race.  A showing's end time is
// always derived as start plus the content's duration, never set
// directly.
type Scheduler struct {
	store Schedule
	log   zerolog.Logger
}

func NewScheduler(store Schedule, log zerolog.Logger) *Scheduler {
	if store == nil {
		panic("nil store passed to NewScheduler")
	}
	return &Scheduler{store: store, log: log}
}

// CreateShowing schedules content contentID at venue venueID from
// start.  Fails VENUE_NOT_FOUND / CONTENT_NOT_FOUND for unknown
// ids and SCHEDULE_OVERLAP, listing the blocking showing ids, when
// the derived interval intersects an existing one.  The remaining
// capacity of the new showing starts at the venue's full capacity.
func (s *Scheduler) CreateShowing(ctx context.Context, venueID, contentID uint64, start time.Time, priceCents uint32) (*model.Showing, error) {
	if start.IsZero() {
		return nil, errInvalidInput("start time is required")
	}

	var out *model.Showing
	err := s.store.WithVenue(ctx, venueID, func(ctx context.Context, tx ScheduleTx) error {
		content, err := tx.Content(ctx, contentID)
		if err != nil {
			return err
		}
		if content.DurationMin == 0 {
			return errInvalidInput("content has no duration")
		}
		start = start.UTC()
		end := start.Add(content.Duration())

		overlapping, err := tx.Overlapping(ctx, start, end, 0)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return errScheduleOverlap(showingIDs(overlapping))
		}

		sh := &model.Showing{
			VenueID:           tx.Venue().ID,
			ContentID:         content.ID,
			StartsAt:          start,
			EndsAt:            end,
			PriceCents:        priceCents,
			RemainingCapacity: tx.Venue().Capacity,
		}
		if err := tx.CreateShowing(ctx, sh); err != nil {
			return err
		}
		out = sh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("showing_id", out.ID).
		Uint64("venue_id", out.VenueID).
		Uint64("content_id", out.ContentID).
		Time("starts_at", out.StartsAt).
		Time("ends_at", out.EndsAt).
		Msg("showing created")
	return out, nil
}

// UpdateShowing applies changes to a showing.  A time-affecting
// change (start or content) requires zero confirmed reservations
// and re-runs the overlap check against the venue's other showings,
// excluding the one being moved; the interval is re-derived from
// the effective start and content duration.  A price-only change
// skips both checks.
func (s *Scheduler) UpdateShowing(ctx context.Context, showingID uint64, changes ShowingChanges) (*model.Showing, error) {
	if changes.empty() {
		return nil, errInvalidInput("no changes supplied")
	}

	pre, err := s.store.FindShowing(ctx, showingID)
	if err != nil {
		return nil, err
	}

	var out *model.Showing
	err = s.store.WithVenue(ctx, pre.VenueID, func(ctx context.Context, tx ScheduleTx) error {
		sh, err := tx.ShowingForUpdate(ctx, showingID)
		if err != nil {
			return err
		}

		if changes.timeAffecting() {
			count, err := tx.ConfirmedReservations(ctx, sh.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return errShowingHasReservations(sh.ID, count)
			}

			contentID := sh.ContentID
			if changes.ContentID != nil {
				contentID = *changes.ContentID
			}
			content, err := tx.Content(ctx, contentID)
			if err != nil {
				return err
			}
			if content.DurationMin == 0 {
				return errInvalidInput("content has no duration")
			}

			start := sh.StartsAt
			if changes.StartsAt != nil {
				start = changes.StartsAt.UTC()
			}
			end := start.Add(content.Duration())

			overlapping, err := tx.Overlapping(ctx, start, end, sh.ID)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				return errScheduleOverlap(showingIDs(overlapping))
			}

			sh.ContentID = content.ID
			sh.StartsAt = start
			sh.EndsAt = end
		}
		if changes.PriceCents != nil {
			sh.PriceCents = *changes.PriceCents
		}

		if err := tx.UpdateShowing(ctx, sh); err != nil {
			return err
		}
		out = sh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("showing_id", out.ID).
		Uint64("venue_id", out.VenueID).
		Time("starts_at", out.StartsAt).
		Time("ends_at", out.EndsAt).
		Msg("showing updated")
	return out, nil
}

// DeleteShowing destroys a showing that has zero confirmed
// reservations, removing any cancelled reservations and their
// claims with it.  Fails SHOWING_HAS_RESERVATIONS otherwise.
func (s *Scheduler) DeleteShowing(ctx context.Context, showingID uint64) error {
	pre, err := s.store.FindShowing(ctx, showingID)
	if err != nil {
		return err
	}

	err = s.store.WithVenue(ctx, pre.VenueID, func(ctx context.Context, tx ScheduleTx) error {
		sh, err := tx.ShowingForUpdate(ctx, showingID)
		if err != nil {
			return err
		}
		count, err := tx.ConfirmedReservations(ctx, sh.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return errShowingHasReservations(sh.ID, count)
		}
		return tx.DeleteShowing(ctx, sh.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info().Uint64("showing_id", showingID).Msg("showing deleted")
	return nil
}

func showingIDs(list []model.Showing) []uint64 {
	ids := make([]uint64, len(list))
	for i, sh := range list {
		ids[i] = sh.ID
	}
	return ids
}
