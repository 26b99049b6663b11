package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResourceID is returned when a URL does not carry a resource ID
	ErrInvalidResourceID = errors.New("invalid resource ID")

	// ErrInvalidResourceKind is returned when a URL is neither a project nor a commission
	ErrInvalidResourceKind = errors.New("invalid resource kind")

	// ErrAssetFolderNotFound is returned when no asset folder exists for a resource
	ErrAssetFolderNotFound = errors.New("asset folder not found")

	// ErrCommissionSchema is returned when a commission row does not have the expected shape
	ErrCommissionSchema = errors.New("unexpected commission data layout")
)

// HTTPStatusError is an unexpected response status from a remote API.
// It is never recovered from.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// IsSkippable reports whether err only affects the entry being processed
func IsSkippable(err error) bool {
	return errors.Is(err, ErrInvalidResourceID) ||
		errors.Is(err, ErrInvalidResourceKind) ||
		errors.Is(err, ErrAssetFolderNotFound)
}
