package journal

import (
	"errors"
	"fmt"
)

// Errors returned while talking to the journal site.
var (
	// ErrNoTable indicates the listing page had no journal table.
	ErrNoTable = errors.New("journal listing has no table")

	// ErrNetworkError indicates the site could not be reached.
	ErrNetworkError = errors.New("network error communicating with journal site")

	// ErrInvalidArtifact indicates a download was not a readable PDF.
	ErrInvalidArtifact = errors.New("downloaded journal part is not a valid PDF")
)

// StatusError is a non-2xx response from the journal site.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("journal site returned HTTP %d for %s", e.StatusCode, e.URL)
}
