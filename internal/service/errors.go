// Package service implements the business logic for reelsmith: profile
// management, the video generation worker, and asset access.
package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure for transport mapping.
type ErrorKind int

const (
	// KindNotFound means the referenced entity does not exist.
	KindNotFound ErrorKind = iota
	// KindValidation means the request was well-formed but semantically invalid.
	KindValidation
	// KindService means an internal failure (storage, encoder, database).
	KindService
	// KindCancelled means the operation was cancelled.
	KindCancelled
)

// Error is the typed error returned by services. HTTP handlers map Kind to a
// status code; everything else stays transport-agnostic.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFoundError creates a KindNotFound error.
func NotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ValidationError creates a KindValidation error.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ServiceError creates a KindService error wrapping a cause.
func ServiceError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindService, Message: fmt.Sprintf(format, args...), Err: err}
}

// CancelledError creates a KindCancelled error.
func CancelledError(format string, args ...any) *Error {
	return &Error{Kind: KindCancelled, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the error kind and true when err is a service error.
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// IsNotFound reports whether err is a KindNotFound service error.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

// IsValidation reports whether err is a KindValidation service error.
func IsValidation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindValidation
}

// IsCancelled reports whether err is a KindCancelled service error.
func IsCancelled(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindCancelled
}
