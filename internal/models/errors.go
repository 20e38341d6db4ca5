package models

import "errors"

var (
	// ErrStoreUnavailable wraps connection, auth and read failures of the document store.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrConfiguration is returned when a strategy is missing a required credential.
	ErrConfiguration = errors.New("missing configuration")

	ErrInvalidOptions = errors.New("invalid check options")
)
