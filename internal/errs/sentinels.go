// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStateConflict indicates an attempted transition out of a terminal state.
	ErrStateConflict = errors.New("state conflict")

	// ErrDecryption indicates an envelope failed authentication on open.
	ErrDecryption = errors.New("decryption failed")

	// ErrRateLimited indicates temporary lockout of invite redemption attempts.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., active invite code taken).
	ErrAlreadyExists = errors.New("already exists")
)
