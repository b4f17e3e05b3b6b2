// ABOUTME: Error taxonomy for the records API, document downloads, and model calls
// ABOUTME: Handlers map these to HTTP status codes; model errors never leave the orchestrator

package services

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrBadGateway is returned when the records API answers 200 with a body that
// is not JSON.
var ErrBadGateway = errors.New("records API returned non-JSON")

// ErrModelTimeout is recorded when the summarization call loses the race
// against its deadline.
var ErrModelTimeout = errors.New("summarization call timed out")

// AuthError reports that neither refresh nor login produced a usable token.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("records API login failed: %v", e.Err)
	}
	return fmt.Sprintf("records API login failed: %d %s", e.StatusCode, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError carries a non-success status from the records API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("records API error: %d %s", e.StatusCode, e.Body)
}

// DownloadError carries a non-success status from a document download.
type DownloadError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download: %s (%d)", e.URL, e.StatusCode)
}

// ModelError wraps a failure reported by a summarization backend.
type ModelError struct {
	Provider string
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s generate failed: %v", e.Provider, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// truncate cuts s to at most n bytes, backing off to a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
