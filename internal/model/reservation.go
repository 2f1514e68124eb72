package model

import "time"

// Reservation statuses.  CANCELLED is terminal; there are no
// further transitions and no other states.
const (
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// Reservation records a holder's booking of one or more seats for
// a single showing.  It is created atomically with its seat claims
// and is never deleted on cancellation; cancelling flips the
// status and releases the claimed capacity.  The reference code is
// the externally visible identifier and is unique across all
// reservations ever created.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – holder of the reservation.
//  ShowingID     – showing being reserved.
//  Status        – CONFIRMED or CANCELLED.
//  TotalCents    – total price in cents (price x seat count).
//  ReferenceCode – unique 8-character public booking code.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64    // reservations.id
	UserID        uint64    // reservations.user_id
	ShowingID     uint64    // reservations.showing_id
	Status        string    // reservations.status
	TotalCents    uint64    // reservations.total_cents
	ReferenceCode string    // reservations.reference_code
	CreatedAt     time.Time // reservations.created_at
	UpdatedAt     time.Time // reservations.updated_at

	// Claims holds the seat claims of this reservation when the
	// reservation was loaded or created with them.  Not every read
	// path populates it.
	Claims []SeatClaim
}

// SeatClaim binds one seat to one reservation for one showing.
// Claims are retained after cancellation for audit; only claims
// whose parent reservation is CONFIRMED count toward a showing's
// occupied capacity.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  ShowingID     – showing the seat is claimed for.
//  SeatID        – claimed seat.
//  SeatLabel     – public seat label, joined from seats on reads.
//  SeatClass     – seat classification, joined from seats on reads.
//  CreatedAt     – creation timestamp.
type SeatClaim struct {
	ID            uint64    // seat_claims.id
	ReservationID uint64    // seat_claims.reservation_id
	ShowingID     uint64    // seat_claims.showing_id
	SeatID        uint64    // seat_claims.seat_id
	SeatLabel     string    // joined: seats.row_label + seats.seat_number
	SeatClass     string    // joined: seats.seat_class
	CreatedAt     time.Time // seat_claims.created_at
}
