// Package repository contains the MySQL data access layer.  All
// SQL lives here; business rules live in internal/booking and call
// into this package through its store interfaces.  Sentinel errors
// defined in this file let handlers distinguish failure scenarios
// without inspecting driver errors, and the MySQL error mapping
// turns InnoDB lock failures into the retryable contention kind
// the booking package defines.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/venuedesk/seat-reservation/internal/booking"
)

// ErrEmailExists is returned when registering a user with an email
// that is already taken.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent records, such as deleting a venue that
// still has showings.  Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrNoChange indicates an UPDATE attempted to set fields equal to
// their current values.  Handlers usually treat it as success.
var ErrNoChange = errors.New("no change")

// MySQL server error numbers handled by this layer.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func isMySQLErr(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

// mapLockErr converts InnoDB lock wait timeouts and deadlock
// victims into booking.Contention so callers see one retryable
// kind instead of driver-specific codes.  Deadlocks between two
// booking transactions cannot happen (single showing lock per
// transaction), but mixed workloads against the same tables can
// still produce one.  Other errors pass through unchanged.
func mapLockErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isMySQLErr(err, mysqlLockWaitTimeout) || isMySQLErr(err, mysqlDeadlock) {
		return booking.NewContention(op, err)
	}
	return err
}
