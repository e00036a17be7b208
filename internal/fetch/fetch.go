// Package fetch defines the read contract shared by every menu data source.
//
// A read either succeeds with a (possibly empty) list of records or fails.
// Menus degrade to "no items" on failure instead of aborting, but unlike a bare
// empty slice the failure stays visible to the caller.
package fetch

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures to reach the data source at all: network
// errors, timeouts, a subprocess that could not be started.
var ErrTransport = errors.New("transport failure")

// ErrMissingField and ErrInvalidField are the causes carried by DecodeError.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field value")
	ErrUnknownField = errors.New("unknown field")
)

// Result is the outcome of one read.
type Result[T any] struct {
	Items []T
	Err   error
}

// Ok wraps a successful read.
func Ok[T any](items []T) Result[T] {
	return Result[T]{Items: items}
}

// Fail wraps a failed read.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Failed reports whether the read failed.
func (r Result[T]) Failed() bool { return r.Err != nil }

// Empty reports whether the read succeeded with no records.
func (r Result[T]) Empty() bool { return r.Err == nil && len(r.Items) == 0 }

// Fatal reports whether the failure must abort rendering rather than degrade
// the menu. Schema violations are fatal; transport and status errors are not.
func (r Result[T]) Fatal() bool {
	var de *DecodeError
	return errors.As(r.Err, &de)
}

// DecodeError reports a record that does not match the expected schema.
type DecodeError struct {
	// Record identifies the offending record (its key, id or index).
	Record string
	// Field is the JSON field at fault, empty if the record as a whole is malformed.
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Record == "" && e.Field == "":
		return fmt.Sprintf("decode: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("decode %s: %v", e.Record, e.Err)
	default:
		return fmt.Sprintf("decode %s: %s: %v", e.Record, e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }
