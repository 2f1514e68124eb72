package model

import "time"

// Venue represents a bookable venue unit with a fixed seating
// capacity.  The capacity is set at creation time from the seat
// grid (rows x cols) and is partitioned into individual seats.
// Once created, the seat partition of a venue never changes;
// reservations reference its seats by id.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique venue name.
//  SeatRows  – number of seating rows.
//  SeatCols  – number of seats per row.
//  Capacity  – total number of seats (rows x cols), fixed.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Venue struct {
	ID        uint64    // venues.id
	Name      string    // venues.name
	SeatRows  uint32    // venues.seat_rows
	SeatCols  uint32    // venues.seat_cols
	Capacity  uint32    // venues.capacity
	CreatedAt time.Time // venues.created_at
	UpdatedAt time.Time // venues.updated_at
}
