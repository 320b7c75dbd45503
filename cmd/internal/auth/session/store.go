package session

import (
	"context"
	"time"

	"reel/cmd/identity"
)

// Store is the slice of the identity store the session subsystem needs.
//
// The refresh-token methods operate on digests, never plaintext tokens.
// SwapRefreshToken is the rotation primitive: it replaces the stored digest
// only when the presented digest still matches, reporting whether the swap
// happened. Losing the race means the presented token was already consumed.
type Store interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (identity.User, error)
	GetUserByID(ctx context.Context, userID string) (identity.User, error)

	ReplaceRefreshToken(ctx context.Context, userID, newHash string, now time.Time) error
	SwapRefreshToken(ctx context.Context, userID, oldHash, newHash string, now time.Time) (swapped bool, err error)
	ClearRefreshToken(ctx context.Context, userID string, now time.Time) error
}
