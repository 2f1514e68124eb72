package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a booking error for callers.  The handler layer
// maps kinds to transport responses; the core never writes to an
// output channel itself.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindStateConflict     Kind = "STATE_CONFLICT"
	KindPermissionDenied  Kind = "PERMISSION_DENIED"
	KindResourceExhausted Kind = "RESOURCE_EXHAUSTED"
	KindContention        Kind = "CONTENTION"
)

// Stable error codes within a kind.  Codes are part of the API
// surface: they appear in responses and event payloads.
const (
	CodeShowingNotFound        = "SHOWING_NOT_FOUND"
	CodeReservationNotFound    = "RESERVATION_NOT_FOUND"
	CodeVenueNotFound          = "VENUE_NOT_FOUND"
	CodeContentNotFound        = "CONTENT_NOT_FOUND"
	CodeInvalidSeats           = "INVALID_SEATS"
	CodeInvalidArgument        = "INVALID_ARGUMENT"
	CodeSeatAlreadyReserved    = "SEAT_ALREADY_RESERVED"
	CodeInsufficientCapacity   = "INSUFFICIENT_CAPACITY"
	CodeShowingInPast          = "SHOWING_IN_PAST"
	CodePastShowing            = "PAST_SHOWING"
	CodeScheduleOverlap        = "SCHEDULE_OVERLAP"
	CodeShowingHasReservations = "SHOWING_HAS_RESERVATIONS"
	CodeNotOwner               = "NOT_OWNER"
	CodeReferenceExhausted     = "REFERENCE_EXHAUSTED"
	CodeLockContention         = "LOCK_CONTENTION"
)

// Error is the typed result every failed core operation resolves
// to before its transaction is rolled back.  Seats carries seat
// identifiers for seat-related failures (labels when the seats
// exist, raw ids otherwise); Showings carries overlapping showing
// ids for schedule conflicts.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	Seats    []string
	Showings []uint64
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a booking error of the given kind.
func IsKind(err error, k Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == k
	}
	return false
}

// IsCode reports whether err is a booking error with the given code.
func IsCode(err error, code string) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// Retryable reports whether the caller may retry the same request.
// Only contention and reference exhaustion are transient; every
// other kind is terminal for the request that produced it.
func Retryable(err error) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	return be.Kind == KindContention || be.Kind == KindResourceExhausted
}

// AsError extracts the typed booking error from err, if any.
func AsError(err error) (*Error, bool) {
	var be *Error
	ok := errors.As(err, &be)
	return be, ok
}

// The NotFound constructors below are exported because the store
// implementations surface absent rows as typed booking errors, per
// the Ledger and Schedule contracts.

func NewShowingNotFound(id uint64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeShowingNotFound,
		Message: fmt.Sprintf("showing %d not found", id),
	}
}

func NewReservationNotFound(id uint64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeReservationNotFound,
		Message: fmt.Sprintf("reservation %d not found", id),
	}
}

func NewVenueNotFound(id uint64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeVenueNotFound,
		Message: fmt.Sprintf("venue %d not found", id),
	}
}

func NewContentNotFound(id uint64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeContentNotFound,
		Message: fmt.Sprintf("content %d not found", id),
	}
}

func errInvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Code: CodeInvalidArgument, Message: msg}
}

func errInvalidSeats(ids []string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Code:    CodeInvalidSeats,
		Message: "invalid seats: " + strings.Join(ids, ", "),
		Seats:   ids,
	}
}

func errSeatsAlreadyReserved(labels []string) *Error {
	return &Error{
		Kind:    KindStateConflict,
		Code:    CodeSeatAlreadyReserved,
		Message: "seats already reserved: " + strings.Join(labels, ", "),
		Seats:   labels,
	}
}

func errInsufficientCapacity(remaining uint32, requested int) *Error {
	return &Error{
		Kind:    KindStateConflict,
		Code:    CodeInsufficientCapacity,
		Message: fmt.Sprintf("insufficient capacity: %d remaining, %d requested", remaining, requested),
	}
}

func errShowingInPast(id uint64) *Error {
	return &Error{
		Kind:    KindStateConflict,
		Code:    CodeShowingInPast,
		Message: fmt.Sprintf("showing %d has already started", id),
	}
}

func errPastShowing(id uint64) *Error {
	return &Error{
		Kind:    KindStateConflict,
		Code:    CodePastShowing,
		Message: fmt.Sprintf("showing %d has already started; reservation can no longer be cancelled", id),
	}
}

func errScheduleOverlap(ids []uint64) *Error {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return &Error{
		Kind:     KindStateConflict,
		Code:     CodeScheduleOverlap,
		Message:  "time slot overlaps showings: " + strings.Join(parts, ", "),
		Showings: ids,
	}
}

func errShowingHasReservations(id uint64, count int) *Error {
	return &Error{
		Kind:    KindStateConflict,
		Code:    CodeShowingHasReservations,
		Message: fmt.Sprintf("showing %d has %d confirmed reservations", id, count),
	}
}

func errNotOwner(reservationID uint64) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Code:    CodeNotOwner,
		Message: fmt.Sprintf("reservation %d belongs to another user", reservationID),
	}
}

func errReferenceExhausted(attempts int) *Error {
	return &Error{
		Kind:    KindResourceExhausted,
		Code:    CodeReferenceExhausted,
		Message: fmt.Sprintf("no free reference code after %d attempts", attempts),
	}
}

// NewContention wraps a store-level lock failure (lock wait
// timeout, deadlock victim) into the retryable contention kind.
// The repository layer calls this when mapping driver errors.
func NewContention(op string, err error) *Error {
	return &Error{
		Kind:    KindContention,
		Code:    CodeLockContention,
		Message: "lock contention during " + op,
		Err:     err,
	}
}
