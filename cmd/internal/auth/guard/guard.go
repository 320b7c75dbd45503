// Package guard is the single authority for request authentication and
// ownership checks.
//
// Access tokens are validated cryptographically only; the stored refresh
// digest is never consulted here, so an access token stays valid until it
// expires even after logout or refresh rotation.
package guard

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"reel/cmd/identity"
	"reel/cmd/internal/auth/session"
)

// AccessCookieName is the cookie carrying the access token for browser
// clients that do not set an Authorization header.
const AccessCookieName = "reel_access"

// ErrForbidden is returned when an authenticated user is not allowed to act
// on a resource.
var ErrForbidden = errors.New("forbidden")

// UserSource loads users for authenticated requests.
type UserSource interface {
	GetUserByID(ctx context.Context, userID string) (identity.User, error)
}

// Guard authenticates requests and enforces resource ownership.
type Guard struct {
	codec *session.Codec
	users UserSource
}

// New constructs a Guard over the given codec and user source.
func New(codec *session.Codec, users UserSource) *Guard {
	return &Guard{codec: codec, users: users}
}

// Authenticate verifies an access token and loads the user it names.
// A token whose subject no longer exists is treated as invalid.
func (g *Guard) Authenticate(ctx context.Context, tokenStr string) (identity.User, error) {
	claims, err := g.codec.Verify(tokenStr, session.KindAccess)
	if err != nil {
		return identity.User{}, err
	}

	user, err := g.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, session.ErrTokenInvalid
		}
		return identity.User{}, err
	}
	return user, nil
}

// Owned is implemented by resources that belong to a single user.
type Owned interface {
	OwnerID() string
}

// RequireOwner returns ErrForbidden unless user owns the resource.
func RequireOwner(user identity.User, res Owned) error {
	if res == nil {
		return ErrForbidden
	}
	return RequireOwnerID(user, res.OwnerID())
}

// RequireOwnerID is RequireOwner for callers that hold the owner ID directly.
func RequireOwnerID(user identity.User, ownerID string) error {
	if ownerID == "" || ownerID != user.ID {
		return ErrForbidden
	}
	return nil
}

// AccessTokenFromRequest extracts the access token from the Authorization
// header, falling back to the access cookie.
func AccessTokenFromRequest(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tok := strings.TrimSpace(parts[1])
			if tok != "" {
				return tok, true
			}
		}
		return "", false
	}

	c, err := r.Cookie(AccessCookieName)
	if err != nil {
		return "", false
	}
	tok := strings.TrimSpace(c.Value)
	if tok == "" {
		return "", false
	}
	return tok, true
}
