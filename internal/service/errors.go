// Package service implements the booking, venue, catalog and identity use
// cases on top of the store interfaces in stores.go.
package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Sentinel errors.  Handlers map each one to an HTTP status; anything else
// is an internal error.
var (
	ErrSeatUnavailable = errors.New("seat unavailable")
	ErrBookingExpired  = errors.New("booking expired")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// SeatUnavailableError carries the seats that could not be held.  It
// matches ErrSeatUnavailable under errors.Is.
type SeatUnavailableError struct {
	SeatIDs []uint64
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat unavailable: %v", e.SeatIDs)
}

func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }

// translate maps repository sentinels onto service errors.  hint, when
// non-empty, is attached as a user-facing detail.
func translate(err error, hint string) error {
	if err == nil {
		return nil
	}
	var out error
	var taken *repository.SeatsTakenError
	switch {
	case errors.As(err, &taken):
		return &SeatUnavailableError{SeatIDs: taken.SeatIDs}
	case errors.Is(err, repository.ErrNotFound):
		out = ErrNotFound
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrConflict):
		out = ErrConflict
	case errors.Is(err, repository.ErrExpired):
		return ErrBookingExpired
	default:
		return err
	}
	if hint != "" {
		out = errors.WithHint(out, hint)
	}
	return out
}

func errorsIsNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }
