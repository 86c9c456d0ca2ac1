// Package apperr defines the error taxonomy shared across the retrieval,
// sync, memory, and agent packages so callers can branch on Kind without
// depending on a specific package's concrete error type.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the logical error classes. These are not HTTP status codes;
// the production transport layer (out of scope here) maps Kind to a status
// and a user-facing envelope.
type Kind string

const (
	KindBadRequest        Kind = "bad_request"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamTimeout   Kind = "upstream_timeout"
	KindVectorIO          Kind = "vector_io"
	KindEmbeddingFailed   Kind = "embedding_failed"
	KindGeocodeFailed     Kind = "geocode_failed"
	KindMemoryInvariant   Kind = "memory_invariant"
	KindToolHopExhausted  Kind = "tool_hop_exhausted"
	KindRateLimited       Kind = "provider_rate_limited"
	KindInternal          Kind = "internal"
)

// Error wraps a Kind with a human-readable message and an optional cause.
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

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error carrying cause, or returns nil if cause is nil.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err (or any error it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to KindInternal when err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
