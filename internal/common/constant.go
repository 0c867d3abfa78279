package common

import "time"

// AuthorizationHeaderName carries the bearer token on inbound HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme expected in the Authorization header.
const BearerPrefix = "Bearer"

const (
	// VerificationCodeLength is the number of digits in an email OTP.
	VerificationCodeLength = 6
	// ResetTokenBytes is the entropy of a password reset token before hex encoding.
	ResetTokenBytes = 32
	// MinPasswordLength applies to signup, change and reset.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt will hash.
	MaxPasswordBytes = 72
)

const (
	DefaultVerificationCodeTTL = 15 * time.Minute
	DefaultResetTokenTTL       = time.Hour
	DefaultAccessTokenTTL      = 7 * 24 * time.Hour
)
