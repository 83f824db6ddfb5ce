// Package service implements the scheduling engine: the resource catalog,
// the availability checker, the pricing and cancellation fee calculators
// and the reservation lifecycle that ties them together.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/amenity-reservation/internal/repository"
)

var (
	// ErrValidationFailed is matched by every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
	// ErrInvalidStateTransition is returned when an operation is not allowed
	// from the reservation's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrNotFound is returned when a reservation or item id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps persistence and lock failures.  The engine
	// never retries; callers may.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError carries every rule violation found for a submission, in
// the order they were detected.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) true for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

func validationFailed(msgs ...string) error {
	return &ValidationError{Messages: msgs}
}

// ValidationMessages returns the messages of a ValidationError in err's
// chain, or nil.
func ValidationMessages(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return nil
}

func invalidTransition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidStateTransition, fmt.Sprintf(format, args...))
}

// storeErr translates a repository error.  Not-found keeps its meaning;
// everything else becomes ErrStoreUnavailable with the cause attached.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
