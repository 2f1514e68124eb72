package model

import (
	"strconv"
	"time"
)

// Seat classifications.  Classification is informational for this
// system; pricing is flat per seat regardless of class.
const (
	SeatClassStandard = "STANDARD"
	SeatClassPremium  = "PREMIUM"
	SeatClassVIP      = "VIP"
)

// Seat describes a physical seat in a venue.  Seats are uniquely
// identified by their venue, row label and seat number, and are
// generated together with the venue.  The seat set of a venue is
// fixed for its lifetime; only the classification may change.
//
// Fields:
//  ID         – primary key identifier.
//  VenueID    – venue to which this seat belongs.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatClass  – classification (STANDARD, PREMIUM, VIP).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64    // seats.id
	VenueID    uint64    // seats.venue_id
	RowLabel   string    // seats.row_label
	SeatNumber uint32    // seats.seat_number
	SeatClass  string    // seats.seat_class
	CreatedAt  time.Time // seats.created_at
	UpdatedAt  time.Time // seats.updated_at
}

// Label returns the public seat identifier, e.g. "A1" for row A,
// seat 1.  Error payloads and availability responses use labels.
func (s Seat) Label() string {
	return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}

// ValidSeatClass reports whether v is one of the known seat
// classifications.
func ValidSeatClass(v string) bool {
	switch v {
	case SeatClassStandard, SeatClassPremium, SeatClassVIP:
		return true
	}
	return false
}
