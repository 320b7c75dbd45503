package session

import (
	"context"
	"strings"
	"time"

	"reel/cmd/identity"
)

// Manager implements the high-level session operations for Reel.
//
// Login verifies credentials and issues an access/refresh pair, refresh
// rotates the pair, and logout invalidates the server-stored refresh state.
// A user holds at most one live refresh token at a time: logging in again
// silently invalidates the previous one.
type Manager struct {
	codec *Codec
	store Store
}

// Issued is the result of a login or a refresh.
type Issued struct {
	User         identity.User
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewManager constructs a Manager over the given codec and store.
func NewManager(codec *Codec, store Store) *Manager {
	return &Manager{codec: codec, store: store}
}

func (m *Manager) issuePair(user identity.User, now time.Time) (Issued, error) {
	accessToken, accessExp, err := m.codec.Issue(KindAccess, user, now)
	if err != nil {
		return Issued{}, err
	}
	refreshToken, refreshExp, err := m.codec.Issue(KindRefresh, user, now)
	if err != nil {
		return Issued{}, err
	}
	return Issued{
		User:         user,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshToken,
		RefreshExp:   refreshExp,
	}, nil
}

// Login verifies credentials and starts a session.
//
// The stored refresh digest is overwritten unconditionally, so a second
// login ends whatever session came before it.
func (m *Manager) Login(ctx context.Context, now time.Time, identifier, password string) (Issued, error) {
	user, err := m.store.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		return Issued{}, err
	}

	issued, err := m.issuePair(user, now)
	if err != nil {
		return Issued{}, err
	}

	if err := m.store.ReplaceRefreshToken(ctx, user.ID, identity.HashRefreshTokenHex(issued.RefreshToken), now); err != nil {
		return Issued{}, err
	}
	return issued, nil
}

// Refresh rotates the session's token pair.
//
// The presented refresh token must verify cryptographically AND still match
// the server-stored digest. Rotation is a single conditional update, so a
// replayed or raced token fails with ErrTokenInvalid without disturbing the
// winner's session.
func (m *Manager) Refresh(ctx context.Context, now time.Time, refreshToken string) (Issued, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	// Sanity bound against pathological inputs.
	if refreshToken == "" || len(refreshToken) > 4096 {
		return Issued{}, ErrTokenInvalid
	}

	claims, err := m.codec.Verify(refreshToken, KindRefresh)
	if err != nil {
		return Issued{}, err
	}

	user, err := m.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if identity.IsNotFound(err) {
			return Issued{}, ErrTokenInvalid
		}
		return Issued{}, err
	}

	issued, err := m.issuePair(user, now)
	if err != nil {
		return Issued{}, err
	}

	swapped, err := m.store.SwapRefreshToken(
		ctx,
		user.ID,
		identity.HashRefreshTokenHex(refreshToken),
		identity.HashRefreshTokenHex(issued.RefreshToken),
		now,
	)
	if err != nil {
		return Issued{}, err
	}
	if !swapped {
		return Issued{}, ErrTokenInvalid
	}
	return issued, nil
}

// Logout clears the stored refresh digest for the user.
// Access tokens already in the wild stay valid until they expire.
func (m *Manager) Logout(ctx context.Context, now time.Time, userID string) error {
	return m.store.ClearRefreshToken(ctx, userID, now)
}
