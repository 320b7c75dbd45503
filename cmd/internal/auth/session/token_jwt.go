package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reel/cmd/identity"
)

// TokenKind discriminates access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the claim set carried by Reel tokens.
//
// Kind is embedded in the payload in addition to the per-kind signing
// secret, so a swapped token fails verification twice over.
type Claims struct {
	Kind     TokenKind `json:"kind"`
	Username string    `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256-signed tokens.
type Codec struct {
	cfg Config

	// now is a test seam for claim validation time.
	now func() time.Time
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

func (c *Codec) secretFor(kind TokenKind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return c.cfg.AccessSecret, nil
	case KindRefresh:
		return c.cfg.RefreshSecret, nil
	default:
		return nil, ErrTokenInvalid
	}
}

func (c *Codec) ttlFor(kind TokenKind) time.Duration {
	if kind == KindRefresh {
		return c.cfg.RefreshTokenTTL
	}
	return c.cfg.AccessTokenTTL
}

// Issue signs a token of the given kind for the user.
// Refresh tokens carry a ULID "jti" so consecutive rotations always produce
// distinct token strings even within the same second.
func (c *Codec) Issue(kind TokenKind, user identity.User, now time.Time) (string, time.Time, error) {
	secret, err := c.secretFor(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	exp := now.Add(c.ttlFor(kind))

	claims := Claims{
		Kind:     kind,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	if kind == KindRefresh {
		jti, err := identity.NewULID(now)
		if err != nil {
			return "", time.Time{}, err
		}
		claims.ID = jti
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a token of the expected kind.
// It returns ErrTokenExpired for expired tokens and ErrTokenInvalid for
// every other failure, including a kind mismatch.
func (c *Codec) Verify(tokenStr string, kind TokenKind) (Claims, error) {
	secret, err := c.secretFor(kind)
	if err != nil {
		return Claims{}, err
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithLeeway(c.cfg.ClockSkew),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	if claims.Kind != kind || claims.Subject == "" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
