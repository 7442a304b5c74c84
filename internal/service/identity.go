package service

import "context"

// User is the identity attached to a request by the auth boundary. Orders may
// be placed anonymously; identity is recorded when present, never required.
type User struct {
	ID    string
	Email string
}

type userContextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFrom extracts the authenticated user from the context, if any.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey{}).(User)
	return u, ok
}
