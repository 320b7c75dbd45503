package guard

import (
	"context"

	"reel/cmd/identity"
)

type ctxKey int

const userKey ctxKey = iota

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user identity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user stored by the middleware.
func UserFrom(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(userKey).(identity.User)
	return u, ok
}
