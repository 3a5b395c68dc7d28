package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when the catalog reports no active record for a code
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrInvalidQuery is returned when a search query is too short to be sent upstream
	ErrInvalidQuery = errors.New("query must be at least 2 characters")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrTimedOut is returned when a remote call does not answer before its deadline
	ErrTimedOut = errors.New("request timed out")

	// ErrTransportFailure is returned for DNS, connection and read failures
	ErrTransportFailure = errors.New("fetch failed")

	// ErrInvalidResponse is returned when a remote answer cannot be decoded
	ErrInvalidResponse = errors.New("invalid response body")

	// ErrInsightUnavailable is returned when no AI API key has been configured
	ErrInsightUnavailable = errors.New("AI API key missing")

	// ErrInsightFailed is matched by every failed AI appraisal request
	ErrInsightFailed = errors.New("AI request failed")
)

// maxBodyExcerpt bounds how much of a failed response body ends up in errors and logs
const maxBodyExcerpt = 300

// RemoteError is used to encode a non-2xx answer from a remote service
type RemoteError struct {
	Status      int
	BodyExcerpt string
}

// NewRemoteError constructs a new RemoteError,
// capping the body excerpt at 300 characters
func NewRemoteError(status int, body string) *RemoteError {
	return &RemoteError{
		Status:      status,
		BodyExcerpt: Excerpt(body, maxBodyExcerpt),
	}
}

func (e *RemoteError) Error() string {
	if e.BodyExcerpt == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d | body: %s", e.Status, e.BodyExcerpt)
}

// Excerpt returns at most limit characters of s
func Excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
