package identity

import (
	"context"
	"time"
)

// User is Reel's canonical security principal. A user is also a channel:
// subscriptions point at user IDs.
type User struct {
	ID           string
	Username     string
	UsernameNorm string
	Email        string
	EmailNorm    string
	FullName     string

	AvatarURL *string
	CoverURL  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth bundles a User with its credential material for login checks.
// Never serialize this type towards clients.
type UserAuth struct {
	User         User
	PasswordHash string

	// RefreshTokenHash is the digest of the single currently-valid refresh
	// token, or empty when the user has no active session.
	RefreshTokenHash string
}

// CreateUserInput describes a registration request.
type CreateUserInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Now      time.Time
}

// Store is the identity persistence boundary.
//
// The refresh-token operations implement the single-session contract:
// exactly one stored refresh value per user, replaced unconditionally on
// login, swapped conditionally on rotation, cleared on logout.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	GetUserByID(ctx context.Context, userID string) (User, error)

	// VerifyCredentials authenticates identifier (username or email) +
	// password. It fails with ErrInvalidCredentials for both unknown
	// identifiers and wrong passwords, and burns a dummy hash verification
	// when the user is missing so the two cases are not timing-separable.
	VerifyCredentials(ctx context.Context, identifier, password string) (User, error)

	// ReplaceRefreshToken unconditionally overwrites the stored refresh
	// digest (login: any session alive elsewhere is silently invalidated).
	ReplaceRefreshToken(ctx context.Context, userID, newHash string, now time.Time) error

	// SwapRefreshToken sets newHash only if the stored digest equals
	// oldHash, as a single atomic read-modify-write. swapped=false means
	// the presented token was already superseded (rotation race, logout,
	// or a replayed stale token).
	SwapRefreshToken(ctx context.Context, userID, oldHash, newHash string, now time.Time) (swapped bool, err error)

	// ClearRefreshToken transitions the user to the no-session state.
	ClearRefreshToken(ctx context.Context, userID string, now time.Time) error

	UpdatePassword(ctx context.Context, userID, passwordHash string, now time.Time) error
	UpdateAvatar(ctx context.Context, userID, avatarURL string, now time.Time) error
	UpdateCover(ctx context.Context, userID, coverURL string, now time.Time) error
}
