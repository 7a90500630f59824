// Package snaperr defines the typed error kinds returned across the
// Snapbase core: a single Error type carrying a Kind, a message and an
// optional wrapped cause, built by one New<Kind> constructor per kind and
// tested with Is(err, kind).
package snaperr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error variants named in the engine's error
// handling design. Kind is comparable so callers can switch on it directly.
type Kind string

const (
	KindNotInitialized    Kind = "NotInitialized"
	KindOutsideWorkspace   Kind = "OutsideWorkspace"
	KindUnsupportedFormat  Kind = "UnsupportedFormat"
	KindSchemaMismatch     Kind = "SchemaMismatch"
	KindDuplicateSnapshot  Kind = "DuplicateSnapshot"
	KindSnapshotNotFound   Kind = "SnapshotNotFound"
	KindStorageUnavailable Kind = "StorageUnavailable"
	KindNotFound           Kind = "NotFound"
	KindQueryFailed        Kind = "QueryFailed"
	KindConfigInvalid      Kind = "ConfigInvalid"
	KindCancelled          Kind = "Cancelled"
)

// Error is the single error type used across the core. Every exported
// operation that can fail returns one of these, constructed by the New*
// helpers below, so that callers can branch on Kind without type-asserting
// a family of distinct structs.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func new_(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func NewNotInitialized(format string, args ...interface{}) *Error {
	return new_(KindNotInitialized, format, args...)
}

func NewOutsideWorkspace(format string, args ...interface{}) *Error {
	return new_(KindOutsideWorkspace, format, args...)
}

func NewUnsupportedFormat(format string, args ...interface{}) *Error {
	return new_(KindUnsupportedFormat, format, args...)
}

func NewSchemaMismatch(format string, args ...interface{}) *Error {
	return new_(KindSchemaMismatch, format, args...)
}

func NewDuplicateSnapshot(format string, args ...interface{}) *Error {
	return new_(KindDuplicateSnapshot, format, args...)
}

func NewSnapshotNotFound(format string, args ...interface{}) *Error {
	return new_(KindSnapshotNotFound, format, args...)
}

func NewStorageUnavailable(cause error, format string, args ...interface{}) *Error {
	return wrap(KindStorageUnavailable, cause, format, args...)
}

func NewNotFound(format string, args ...interface{}) *Error {
	return new_(KindNotFound, format, args...)
}

func NewQueryFailed(cause error, detail string) *Error {
	return wrap(KindQueryFailed, cause, "%s", detail)
}

func NewConfigInvalid(format string, args ...interface{}) *Error {
	return new_(KindConfigInvalid, format, args...)
}

func NewCancelled(format string, args ...interface{}) *Error {
	return new_(KindCancelled, format, args...)
}

// Wrap attaches an operation's context to a lower-level failure without
// discarding it, per the propagation policy: low-level failures are wrapped
// with the operation's context and surfaced to the caller, never swallowed.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return wrap(kind, cause, format, args...)
}

// Of returns (err, true) if err (or something it wraps) is a *Error of the
// given kind.
func Of(err error, kind Kind) (*Error, bool) {
	var se *Error
	if !errors.As(err, &se) || se.Kind != kind {
		return nil, false
	}
	return se, true
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	_, ok := Of(err, kind)
	return ok
}
