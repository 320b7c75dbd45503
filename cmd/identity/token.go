package identity

import "reel/cmd/security/token"

// Refresh-token values are never stored in plaintext: the users row keeps a
// 64-char hex digest and comparisons happen digest-to-digest. identity
// delegates the hashing to cmd/security/token as the single source of truth.

// HashRefreshTokenHex returns the server-stored digest for a refresh token.
// It uses HMAC-SHA256 if REEL_TOKEN_HMAC_KEY is set; otherwise falls back to SHA-256.
func HashRefreshTokenHex(tokenStr string) string { return token.HashRefreshTokenHex(tokenStr) }
