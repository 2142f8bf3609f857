package service

import "errors"

// Sentinel errors matched with errors.Is at the handler boundary.
var (
	// ErrMissingDescriptor means the profile lacks the free-text
	// appearance description the image providers need. A precondition
	// the user has to fix, never retried.
	ErrMissingDescriptor = errors.New("profile has no visualization descriptor")

	// ErrProvider marks an upstream LLM or image provider failure.
	ErrProvider = errors.New("provider request failed")

	// ErrInvalidDate marks a malformed activity date parameter.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)
