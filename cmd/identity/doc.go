// Package identity implements Reel's identity foundation.
//
// It owns the canonical User record (login identifiers, password hash, and
// the single server-stored refresh-token value), plus the security
// primitives around it (ULID, password hashing, token hashing).
//
// This package is intentionally dependency-light and security-first.
package identity
