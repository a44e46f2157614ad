package middleware

import (
	"context"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/token"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the authenticated caller's identity.
// Handlers behind the auth guard read it back via GetIdentity.
func WithIdentity(ctx context.Context, id token.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the caller identity from context and true if set;
// otherwise a zero Identity and false.
func GetIdentity(ctx context.Context) (token.Identity, bool) {
	v, ok := ctx.Value(identityKey).(token.Identity)
	return v, ok
}
