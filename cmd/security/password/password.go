package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2.Version is 0x13.
const argon2Version = 19

var hashEncoding = base64.RawStdEncoding

// Hash derives an Argon2id hash of password and returns it in PHC string
// form: $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<key_b64>.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	enc := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		c.Params.MemoryKiB,
		c.Params.Iterations,
		c.Params.Parallelism,
		hashEncoding.EncodeToString(salt),
		hashEncoding.EncodeToString(key),
	)
	return enc, nil
}

// Verify reports whether password matches encodedHash. A malformed or
// unsupported hash yields ErrInvalidHash; a clean mismatch yields
// (false, nil).
func (c Config) Verify(encodedHash, password string) (bool, error) {
	params, salt, expected, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}

	// Stored hash strings are untrusted input. Parameters far above our
	// configured ceiling are rejected instead of being fed to the KDF.
	if !paramsAcceptable(params, c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- length bounded by paramsAcceptable.
	)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// paramsAcceptable allows hashes made with older, smaller settings while
// rejecting anything far beyond the configured limits.
func paramsAcceptable(got Argon2idParams, limits Argon2idParams) bool {
	switch {
	case got.MemoryKiB > limits.MemoryKiB*2:
		return false
	case got.Iterations > limits.Iterations*2:
		return false
	case got.Parallelism > limits.Parallelism*2:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}

func parseHash(encoded string) (Argon2idParams, []byte, []byte, error) {
	fail := func() (Argon2idParams, []byte, []byte, error) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return fail()
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return fail()
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return fail()
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return fail()
	}

	salt, err := hashEncoding.DecodeString(parts[4])
	if err != nil {
		return fail()
	}
	key, err := hashEncoding.DecodeString(parts[5])
	if err != nil {
		return fail()
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by paramsAcceptable.
		KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by paramsAcceptable.
	}
	return params, salt, key, nil
}
