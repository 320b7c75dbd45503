package password

import "errors"

// Sentinel errors returned by Validate, Hash and Verify. Callers match them
// with errors.Is.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidHash      = errors.New("invalid password hash")
)
