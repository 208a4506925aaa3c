package world

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// these via errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrParse           = errors.New("parse error")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileAccess      = errors.New("file access error")
	ErrSerialization   = errors.New("serialization error")
)

// Door transition failures. Each also matches ErrInvalidState.
var (
	ErrNoDoor            = kindError(ErrInvalidState, "there is no door there")
	ErrNoKeyhole         = kindError(ErrInvalidState, "there is no keyhole")
	ErrDoorAlreadyOpen   = kindError(ErrInvalidState, "door is already open")
	ErrDoorAlreadyClosed = kindError(ErrInvalidState, "door is already closed")
	ErrDoorNotClosed     = kindError(ErrInvalidState, "door must be closed first")
	ErrDoorAlreadyLocked = kindError(ErrInvalidState, "door is already locked")
	ErrDoorNotLocked     = kindError(ErrInvalidState, "door is not locked")
	ErrDoorLocked        = kindError(ErrInvalidState, "door is locked")
	ErrWrongKey          = kindError(ErrInvalidState, "you do not have the right key")
	ErrPickproof         = kindError(ErrInvalidState, "the lock resists picking")
	ErrPickFailed        = kindError(ErrInvalidState, "you failed to pick the lock")
)

// Error is the concrete error type of the world package.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap exposes the cause so errors.Is reaches both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, op, msg string, cause error) error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func kindError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func invalidArgument(op, format string, args ...any) error {
	return newError(ErrInvalidArgument, op, fmt.Sprintf(format, args...), nil)
}

func invalidState(op, format string, args ...any) error {
	return newError(ErrInvalidState, op, fmt.Sprintf(format, args...), nil)
}

func parseError(op, format string, args ...any) error {
	return newError(ErrParse, op, fmt.Sprintf(format, args...), nil)
}
