// Package common defines shared constants and sentinel errors used across
// the journal vault. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Access-control errors. ErrForbidden covers both a wrong role and a
	// principal that does not own the record.
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidAssignment = errors.New("student is not assigned to this counselor")

	// Input policy errors.
	ErrValidation = errors.New("validation error")

	// Stored-envelope errors. ErrInvalidEnvelope is a shape problem detected
	// before decryption; ErrIntegrity means the envelope failed authentication.
	ErrInvalidEnvelope = errors.New("invalid envelope")
	ErrIntegrity       = errors.New("integrity error")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
