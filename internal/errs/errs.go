// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package errs implements the engine's error-kind taxonomy.
//
// Every error the engine returns across its public surface carries one of a
// small, fixed set of kinds (Kind). Callers branch on kind, not on string
// matching or package-specific sentinel values, via errors.Is/errors.As.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Kind = iota
	// NotInitialized is returned for any call before init().
	NotInitialized
	// AlreadyInitializedDifferentPath is returned when init() is called
	// with a path different from the one the engine is already using.
	AlreadyInitializedDifferentPath
	// InvalidInput is returned for validation failures (ids, names, coordinates, offsets).
	InvalidInput
	// NotFound is returned when a referenced id does not exist.
	NotFound
	// Conflict is returned for uniqueness violations, e.g. duplicate route names.
	Conflict
	// StorageFailure is returned for disk, serialization, or migration failures.
	StorageFailure
	// Cancelled is returned when a detection job was superseded or the engine cleared mid-job.
	Cancelled
	// Internal is returned for invariant violations; a bug, never expected at runtime.
	Internal
)

// String returns a lowercase, stable name for the kind, suitable for logging.
func (k Kind) String() string {
	switch k {
	case NotInitialized:
		return "not_initialized"
	case AlreadyInitializedDifferentPath:
		return "already_initialized_different_path"
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case StorageFailure:
		return "storage_failure"
	case Cancelled:
		return "cancelled"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned across the engine's public surface.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, errs.New(SomeKind, "")) to match on kind alone.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New constructs an *Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error with the given kind, message, and an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf constructs an *Error using a format string for the message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, returning Unknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
