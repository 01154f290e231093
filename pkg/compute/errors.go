package compute

import (
	"errors"
	"fmt"
)

// ErrNoItems is returned when a listing response lacks the items key. This
// is a transport-class failure of the whole traversal, not a per-record
// decode problem.
var ErrNoItems = errors.New("No items in response")

// MissingFieldError reports a required field that is absent or has the
// wrong JSON type in one raw instance object. The whole record is discarded.
type MissingFieldError struct {
	Field string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing or invalid %q field", e.Field)
}

// AggregateDecodeError is the single terminal error of a traversal in which
// one or more records failed to decode. The individual causes are retained
// for logging and debugging; callers get all-or-nothing, never a partial
// fleet view.
type AggregateDecodeError struct {
	Causes []error
}

// Error implements the error interface.
func (e *AggregateDecodeError) Error() string {
	return "Error parsing instances"
}

// Unwrap exposes the collected per-record causes to errors.Is/As.
func (e *AggregateDecodeError) Unwrap() []error {
	return e.Causes
}
