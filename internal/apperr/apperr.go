// Package apperr holds the error taxonomy shared by every layer.
// Callers wrap these with fmt.Errorf("%w: ...") and match with errors.Is;
// only the HTTP boundary translates them into status codes.
package apperr

import "errors"

var (
	// ErrNotFound indicates an unknown session, join code, pokemon or trainer.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a malformed request value (unknown mode, unknown hint).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperation indicates a request that is illegal in the current state
	// (joining your own session, joining a full session, guessing before start).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConflict indicates a uniqueness violation (pseudo or email already taken).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrFailure indicates a collaborator failure (catalog or account store unavailable).
	ErrFailure = errors.New("failure")
)
