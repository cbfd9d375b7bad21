package ipsearch

import (
	"errors"
	"fmt"
)

// Errors returned by a search session.
var (
	// ErrInvalidCaptcha indicates the site rejected the CAPTCHA answer.
	ErrInvalidCaptcha = errors.New("invalid CAPTCHA")

	// ErrNoResult indicates the search did not return exactly one application.
	ErrNoResult = errors.New("search returned no single matching application")

	// ErrUnexpectedPage indicates a page lacked the form the next step needs.
	ErrUnexpectedPage = errors.New("unexpected page from search site")

	// ErrNetworkError indicates the search site could not be reached.
	ErrNetworkError = errors.New("network error communicating with search site")
)

// PageError carries the page that broke the replay so it can be saved for
// inspection.
type PageError struct {
	Stage string
	Page  []byte
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response from the search site.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search site returned HTTP %d for %s", e.StatusCode, e.URL)
}
