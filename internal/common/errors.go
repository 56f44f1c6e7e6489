// Package common defines shared constants and sentinel errors used across
// the server, the transports and the CLI client. Callers should use errors.Is
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned by login when the username/password pair is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid is the parent of every "this credential cannot be used" outcome.
	ErrTokenInvalid = errors.New("invalid token")

	// Token lifecycle errors. All of them match ErrTokenInvalid with errors.Is.
	ErrTokenMalformed = fmt.Errorf("%w: malformed or bad signature", ErrTokenInvalid)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenInvalid)
	ErrTokenRevoked   = fmt.Errorf("%w: revoked", ErrTokenInvalid)
	ErrTokenNotFound  = fmt.Errorf("%w: not found", ErrTokenInvalid)

	// ErrTokenOwnershipMismatch is returned when a refresh token is presented on
	// behalf of a subject that does not own it. It is a forbidden outcome, not
	// an unauthenticated one, so it does not wrap ErrTokenInvalid.
	ErrTokenOwnershipMismatch = errors.New("token ownership mismatch")

	// ErrUnknownRole is returned when a token is about to be issued with a role
	// outside the known set.
	ErrUnknownRole = errors.New("unknown role")
)

// IsAuthError reports whether err belongs to the authentication taxonomy, as
// opposed to an unexpected (storage, crypto) failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenOwnershipMismatch)
}
