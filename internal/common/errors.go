// Package common defines shared constants and sentinel errors used across
// client and server layers of Keepsake. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Payload errors (malformed entry, empty profile fields).
	ErrValidation = errors.New("validation error")

	// Backing store errors. Transient; callers degrade instead of retrying.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Reveal cache errors.
	ErrCacheWriteFailed = errors.New("cache write failed")
	ErrRevealLocked     = errors.New("reveal is locked until the deadline")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Session errors.
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrEmailDomainNotAllowed = errors.New("email domain not allowed")
)
