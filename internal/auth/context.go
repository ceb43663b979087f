// ABOUTME: Authenticated user propagation through request handlers
// ABOUTME: Provides WithUser/UserFromContext for carrying identity via context

package auth

import (
	"context"

	"github.com/gptstir/chat-gateway/internal/store"
)

// userContextKey is the key type for storing the user in context.Context.
type userContextKey struct{}

// WithUser returns a new context with the authenticated user attached.
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the authenticated user from the context,
// returning nil if not present.
func UserFromContext(ctx context.Context) *store.User {
	val := ctx.Value(userContextKey{})
	if val == nil {
		return nil
	}
	user, ok := val.(*store.User)
	if !ok {
		return nil
	}
	return user
}

// MustUserFromContext retrieves the authenticated user, panicking if absent.
// Only call downstream of Middleware.
func MustUserFromContext(ctx context.Context) *store.User {
	user := UserFromContext(ctx)
	if user == nil {
		panic("auth: user not found in context")
	}
	return user
}
