package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// GitHub-specific errors.
var (
	// ErrInvalidCursor indicates the listing cursor is not a page number.
	ErrInvalidCursor = errors.New("github: invalid cursor format")
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Unwrap lets callers match domain.ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}

// toDomainError classifies a client error for the indexer: decode failures
// become *domain.ParseError, everything else *domain.TransportError.
func toDomainError(err error, url string) error {
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &domain.ParseError{URL: url, Err: err}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.URL != "" {
			url = apiErr.URL
		}
		return &domain.TransportError{URL: url, StatusCode: apiErr.StatusCode, Err: err}
	}
	return &domain.TransportError{URL: url, Err: err}
}
