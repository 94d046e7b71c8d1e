package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source kind or driver.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnknownInstance indicates an enqueue referenced an unconfigured source instance.
	ErrUnknownInstance = errors.New("unknown source instance")

	// ErrQueueClosed indicates the dedup queue has been shut down.
	ErrQueueClosed = errors.New("queue closed")

	// Collaborator Errors.

	// ErrStorage wraps failures of the record store.
	ErrStorage = errors.New("storage error")

	// ErrSearch wraps failures of the search index. Always best-effort.
	ErrSearch = errors.New("search error")

	// ErrSearchUnavailable indicates the search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// TransportError reports a network failure, timeout or non-2xx response
// from a remote source.
type TransportError struct {
	// URL is the requested endpoint.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: HTTP %d fetching %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("transport: fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that could not be decoded.
type ParseError struct {
	// URL is the endpoint whose body failed to parse.
	URL string

	// Snippet holds the first bytes of the body for diagnostics.
	Snippet string

	// Err is the decoder error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: decoding %s: %v. Body starts with: %s", e.URL, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// BodySnippet truncates a response body for inclusion in a ParseError.
func BodySnippet(body []byte) string {
	const maxSnippet = 200
	if len(body) > maxSnippet {
		return string(body[:maxSnippet])
	}
	return string(body)
}
