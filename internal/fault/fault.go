// Package fault classifies the failures the console can run into.
//
// Three kinds exist. A BoundaryUnavailable error means a device the session
// depends on (camera, serial link, GPIO, input device) could not be opened and
// is fatal at start-up. InvalidUserInput is raised for manual dialog entries
// that do not parse or are out of range; callers re-prompt. TransientIO covers a
// single failed capture, file or serial write; callers report it and keep the
// control loop alive.
package fault

import (
	"errors"
	"fmt"
)

var (
	ErrBoundaryUnavailable = errors.New("boundary unavailable")
	ErrInvalidUserInput    = errors.New("invalid user input")
	ErrTransientIO         = errors.New("transient I/O failure")
)

// Error carries the kind of failure, the operation that failed and the cause.
type Error struct {
	Kind error  // one of the Err* sentinels
	Op   string // e.g. "open serial /dev/ttyACM0"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Boundary wraps err as a BoundaryUnavailable failure of op.
func Boundary(op string, err error) error {
	return &Error{Kind: ErrBoundaryUnavailable, Op: op, Err: err}
}

// Input wraps err as an InvalidUserInput failure of op.
func Input(op string, err error) error {
	return &Error{Kind: ErrInvalidUserInput, Op: op, Err: err}
}

// Transient wraps err as a TransientIO failure of op. A nil err stays nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrTransientIO, Op: op, Err: err}
}
