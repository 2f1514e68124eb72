package model

import "time"

// Showing binds a content item to one venue for a half-open time
// interval [StartsAt, EndsAt).  For a fixed venue no two showings
// may have overlapping intervals.  RemainingCapacity counts seats
// not held by confirmed reservations and always satisfies
// 0 <= RemainingCapacity <= venue capacity; it is mutated only
// under the showing's exclusive row lock, atomically with the
// reservation write that triggered the change.
//
// Fields:
//  ID                – primary key identifier.
//  VenueID           – venue the showing takes place in.
//  ContentID         – catalog item being shown.
//  StartsAt          – inclusive start of the interval.
//  EndsAt            – exclusive end (StartsAt + content duration).
//  PriceCents        – flat per-seat price in cents.
//  RemainingCapacity – seats still available for booking.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Showing struct {
	ID                uint64    // showings.id
	VenueID           uint64    // showings.venue_id
	ContentID         uint64    // showings.content_id
	StartsAt          time.Time // showings.starts_at
	EndsAt            time.Time // showings.ends_at
	PriceCents        uint32    // showings.price_cents
	RemainingCapacity uint32    // showings.remaining_capacity
	CreatedAt         time.Time // showings.created_at
	UpdatedAt         time.Time // showings.updated_at
}
