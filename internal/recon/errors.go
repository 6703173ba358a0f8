// Package recon runs the reconciliation pass: normalize a batch, match each
// listing against the sheet snapshot, apply the queued writes and record the
// request in the log. The package owns the idempotency and locking rules.
package recon

import (
	"errors"
	"fmt"
)

// Status classifies a reconciliation failure for transport mapping.
type Status string

const (
	// StatusSchemaInvalid marks a rejected batch: missing request_id, no
	// listings, or a listing without a building name.
	StatusSchemaInvalid Status = "schema_invalid"
	// StatusConflict marks contention: the sheet lock could not be taken
	// within the wait timeout.
	StatusConflict Status = "conflict"
	// StatusInternal marks store or infrastructure failures.
	StatusInternal Status = "internal"
)

// Error is a classified reconciliation error.
type Error struct {
	Code Status
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SchemaError builds a schema_invalid error.
func SchemaError(format string, args ...any) *Error {
	return &Error{Code: StatusSchemaInvalid, Msg: fmt.Sprintf(format, args...)}
}

// ConflictError builds a conflict error.
func ConflictError(msg string, err error) *Error {
	return &Error{Code: StatusConflict, Msg: msg, Err: err}
}

// InternalError wraps an infrastructure failure.
func InternalError(msg string, err error) *Error {
	return &Error{Code: StatusInternal, Msg: msg, Err: err}
}

// StatusOf extracts the Status of an error, defaulting to internal.
func StatusOf(err error) Status {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return StatusInternal
}
