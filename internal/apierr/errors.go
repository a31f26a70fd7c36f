// ABOUTME: Error taxonomy for provider and orchestration failures.
// ABOUTME: Classifies outcomes so expected domain conditions are not conflated with faults.

package apierr

import (
	"errors"
	"fmt"
)

// Kind categorizes an error for routing and response shaping.
type Kind string

const (
	// KindNotFound means a provider does not know the requested entity.
	KindNotFound Kind = "not_found"

	// KindValidationFailed means required parameters were missing or malformed.
	KindValidationFailed Kind = "validation_failed"

	// KindConnectionExhausted means a transient failure persisted through all retries.
	KindConnectionExhausted Kind = "connection_exhausted"

	// KindRequestRejected means the backing service rejected the request outright.
	// Rejections are never retried.
	KindRequestRejected Kind = "request_rejected"

	// KindCoordinationPartial means some but not all providers in a
	// coordinated dispatch succeeded.
	KindCoordinationPartial Kind = "coordination_partial"

	// KindUnclassified means the router could not determine an intent.
	KindUnclassified Kind = "unclassified"
)

// Error carries a kind alongside the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Status  int // HTTP status from the backing call, when one exists
	wrapped error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind to an existing error. Returns nil for a nil cause.
// If the cause is already an *Error, it is returned unchanged.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: kind, Message: message, wrapped: err}
}

// WithStatus sets the HTTP status associated with the error.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// KindOf extracts the kind from an error chain, or "" if none is present.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func classify(kind Kind) func(error) bool {
	return func(err error) bool {
		if err == nil {
			return false
		}
		var ae *Error
		if errors.As(err, &ae) {
			return ae.Kind == kind
		}
		return false
	}
}

// Predicates for common handling paths.
var (
	IsNotFound            = classify(KindNotFound)
	IsValidationFailed    = classify(KindValidationFailed)
	IsConnectionExhausted = classify(KindConnectionExhausted)
	IsRequestRejected     = classify(KindRequestRejected)
	IsUnclassified        = classify(KindUnclassified)
)
