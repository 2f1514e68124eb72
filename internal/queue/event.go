// Package queue publishes and consumes reservation lifecycle events
// over RabbitMQ.  Eventing is best effort: a reservation is final
// once its database transaction commits, whether or not the broker
// is reachable.
package queue

// Queue names.  Durable queues on the default exchange, one per
// event type, routing key equal to the queue name.
const (
	QueueReservationConfirmed = "reservation.confirmed"
	QueueReservationCancelled = "reservation.cancelled"
)

// ReservationConfirmedEvent is published after a reservation
// commits.  It carries enough for downstream consumers to log or
// notify without querying the primary database.
type ReservationConfirmedEvent struct {
	EventID       string   `json:"event_id"`
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	ShowingID     uint64   `json:"showing_id"`
	ReferenceCode string   `json:"reference_code"`
	SeatLabels    []string `json:"seats"`
	TotalCents    uint64   `json:"total_cents"`
	ConfirmedAt   string   `json:"confirmed_at"`
}

// ReservationCancelledEvent is published after a cancellation
// commits and the seats have been released.
type ReservationCancelledEvent struct {
	EventID       string   `json:"event_id"`
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	ShowingID     uint64   `json:"showing_id"`
	ReferenceCode string   `json:"reference_code"`
	SeatLabels    []string `json:"seats"`
	CancelledAt   string   `json:"cancelled_at"`
}
