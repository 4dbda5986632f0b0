package store

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a point lookup that matched no record. It is the only
// backend outcome that is not retried; every other failure from the store
// is treated as transient.
var ErrNotFound = errors.New("record not found")

// TransientError wraps a backend failure that is expected to succeed on
// retry (timeout, momentary unavailability, dropped connection).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a transient failure for the given operation.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
