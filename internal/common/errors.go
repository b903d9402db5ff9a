// Package common defines shared constants and sentinel errors used across
// the client and server layers of Afterlog. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("duplicate key value violates unique constraint")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("permission denied")

	// Auth errors. Their texts reach the client verbatim and are matched
	// there to pick a friendlier message, so keep the wording stable.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrRateLimited        = errors.New("email rate limit exceeded")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidEmail       = errors.New("unable to validate email address: invalid format")

	// Token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Record gateway errors.
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrReadOnlyColumn    = errors.New("column is not writable")
	ErrInvalidValue      = errors.New("invalid value")
)
