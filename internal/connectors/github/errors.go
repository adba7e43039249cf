package github

import (
	"errors"
	"fmt"
	"time"
)

// GitHub-specific errors.
var (
	// ErrNotGitHubLocation indicates the location does not name a github.com repository.
	ErrNotGitHubLocation = errors.New("github: not a github.com repository location")

	// ErrRepoNotFound indicates the repository or ref was not found or is not accessible.
	ErrRepoNotFound = errors.New("github: repository or ref not found")

	// ErrUnsafeArchiveEntry indicates an archive entry would escape the destination.
	ErrUnsafeArchiveEntry = errors.New("github: unsafe archive entry")

	// ErrArchiveTooLarge indicates the extracted archive exceeded the size cap.
	ErrArchiveTooLarge = errors.New("github: archive too large")
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

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap maps a 404 to ErrRepoNotFound so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrRepoNotFound
	}
	return nil
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRepoNotFound)
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
