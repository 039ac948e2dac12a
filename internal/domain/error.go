package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrSessionExpired        = errors.New("checkout session expired")
	ErrSessionFailed         = errors.New("checkout session already failed")
	ErrConflict              = errors.New("conditional update conflict")
	ErrIDGenerationExhausted = errors.New("flidesk id generation exhausted")
	ErrStoreUnavailable      = errors.New("session store unavailable")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrProofRejected         = errors.New("payment proof rejected by gateway")

	// Infra-level errors surfaced by repositories
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)
