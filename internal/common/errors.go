// Package common defines shared constants and sentinel errors used across
// the connector's services and transports. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("authentication required")
	ErrorValidation   = errors.New("validation error")

	// Registration / verification errors.
	ErrDuplicateAccount     = errors.New("user already exists with this email")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired OTP")
	ErrWeakPassword         = errors.New("password must be at least 8 characters")

	// Credential errors.
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("please verify your email before logging in")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired reset token")

	// Access errors raised by the auth gate.
	ErrNotApproved = errors.New("account not approved")
	ErrForbidden   = errors.New("access denied")

	// Admin lifecycle errors.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Throttling.
	ErrRateLimited = errors.New("too many requests")
)
