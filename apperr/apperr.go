// Package apperr defines the typed error taxonomy shared by every layer of
// Timeship, from the rooted filesystem gateway up to the HTTP surface.
//
// Errors carry a Kind enum rather than an HTTP status directly, so the
// storage and snapshot packages can raise a typed failure without knowing
// anything about HTTP; only the HTTP surface maps Kind to a status code,
// via errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of failure, independent of presentation.
type Kind int

const (
	// Internal covers any I/O error that doesn't match a more specific kind.
	Internal Kind = iota
	InvalidPath
	InvalidSnapshot
	InvalidParameter
	InvalidStorage
	StorageNotFound
	NotFound
	PermissionDenied
	Escape
	NotSupported
)

func (k Kind) String() string {
	switch k {
	case InvalidPath:
		return "invalid path"
	case InvalidSnapshot:
		return "invalid snapshot"
	case InvalidParameter:
		return "invalid parameter"
	case InvalidStorage:
		return "invalid storage"
	case StorageNotFound:
		return "storage not found"
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	case Escape:
		return "path escapes root"
	case NotSupported:
		return "not supported"
	default:
		return "internal error"
	}
}

// Error is the typed error carried between layers. Detail is the
// human-readable, path-relative explanation; it MUST NOT contain absolute
// on-disk paths per spec.
type Error struct {
	Kind   Kind
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Detail)
}

func (e *Error) Unwrap() error {
	return e.err
}

// New creates an Error of the given kind with a formatted detail message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that preserves the original error
// for inspection via errors.Unwrap, while presenting only detail to users.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), err: err}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, otherwise
// Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
