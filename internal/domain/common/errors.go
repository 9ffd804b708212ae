// Package common holds the error taxonomy shared by every layer of the service.
package common

import (
	"context"
	"errors"
)

// Kind classifies a failure so the HTTP boundary can pick a status code
// without knowing which layer produced it.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindStorage        Kind = "storage"
	KindTimeout        Kind = "timeout"
	KindInternal       Kind = "internal"
)

// Error is the typed error returned by services and repositories.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare kind sentinels below, so callers can write
// errors.Is(err, common.ErrConflict).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrStorage        = &Error{Kind: KindStorage}
	ErrTimeout        = &Error{Kind: KindTimeout}
)

func NewAuthentication(message string) error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func NewAuthorization(message string) error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NewNotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewValidation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewConflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewStorage(message string, err error) error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func NewTimeout(message string, err error) error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

// WrapStorage turns an arbitrary driver error into a storage error, or a
// timeout error when the request context expired underneath it.
func WrapStorage(message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeout(message, err)
	}
	return NewStorage(message, err)
}

// KindOf reports the kind of err. Untyped errors are internal unless they
// carry a context deadline.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// IsKind reports whether err has the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the client-facing message of a typed error.
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return "internal server error"
}
