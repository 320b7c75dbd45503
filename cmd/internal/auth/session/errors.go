package session

import "errors"

var (
	// ErrTokenInvalid is returned when a token fails signature or claim
	// verification, or when a refresh token no longer matches the
	// server-stored digest.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
