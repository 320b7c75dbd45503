package token

import "errors"

// Sentinel errors reported by HMACKeyFromEnv. App startup matches them with
// errors.Is to build its security hints.
var (
	ErrHMACKeyMissing  = errors.New("token HMAC key missing")
	ErrHMACKeyTooShort = errors.New("token HMAC key too short")
)
