package constants

import "errors"

// Errors
var (
	// ErrEmptyResultSet is returned when the backend answered successfully
	// but with zero items where one was expected.
	ErrEmptyResultSet = errors.New("Empty result set") //nolint:stylecheck
	// ErrValidation wraps client-side argument checks that fail before any
	// request is made.
	ErrValidation = errors.New("validation failed")
	ErrInvalidID  = errors.New("invalid identifier")

	ErrNoBaseURL          = errors.New("base url not set")
	ErrNoMarshaler        = errors.New("marshaler is not set")
	ErrNoUnmarshaler      = errors.New("unmarshaler is not set")
	ErrInvalidResponse    = errors.New("invalid backend response")
	ErrMethodNotAvailable = errors.New("method not available on this connection")
	ErrFeedClosed         = errors.New("live feed closed")
)
