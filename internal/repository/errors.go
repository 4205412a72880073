// Package repository holds the MySQL implementations of the service stores.
// Repositories return the sentinels below so higher layers can tell
// failure scenarios apart without inspecting driver errors.
package repository

import (
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when the addressed row does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate")

	// ErrConflict is returned when an update or delete cannot be performed
	// because of the current state, such as deleting a showtime that
	// already has bookings or a compare-and-set that found another status.
	ErrConflict = errors.New("conflict")

	// ErrExpired is returned when a pending booking is past its deadline.
	ErrExpired = errors.New("booking expired")

	// ErrSeatLimit is returned when a booking already holds the maximum
	// number of seats.
	ErrSeatLimit = errors.New("seat limit reached")

	// ErrEmptyBooking is returned when confirming a booking with no seats.
	ErrEmptyBooking = errors.New("booking has no seats")

	// ErrSeatTaken is the sentinel behind SeatsTakenError.
	ErrSeatTaken = errors.New("seat taken")
)

// SeatsTakenError lists the seats that could not be moved to hold.
type SeatsTakenError struct {
	SeatIDs []uint64
}

func (e *SeatsTakenError) Error() string {
	return fmt.Sprintf("seats not available: %v", e.SeatIDs)
}

func (e *SeatsTakenError) Is(target error) bool { return target == ErrSeatTaken }

// MySQL error numbers we react to.
const (
	errDupEntry      = 1062
	errLockWait      = 1205
	errDeadlock      = 1213
	errRowReferenced = 1451
	errNoReferenced  = 1452
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlCode(err) == errDupEntry }

// isLockFailure reports deadlocks and lock wait timeouts.  Both leave the
// transaction rolled back by InnoDB.
func isLockFailure(err error) bool {
	c := mysqlCode(err)
	return c == errDeadlock || c == errLockWait
}

// isFKViolation reports foreign key failures in either direction: a parent
// row still referenced, or a child pointing at a missing parent.
func isFKViolation(err error) bool {
	c := mysqlCode(err)
	return c == errRowReferenced || c == errNoReferenced
}

// notFound converts sql.ErrNoRows into ErrNotFound and wraps anything else.
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// mustAffect returns ErrNotFound when an UPDATE or DELETE matched nothing.
func mustAffect(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}

func idArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
