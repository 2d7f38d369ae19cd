// Package middleware carries the authentication and authorization chain every
// protected route runs through, plus the request context plumbing.
package middleware

import (
	"context"

	userdomain "workspace-kit/internal/user/domain"
	workspacedomain "workspace-kit/internal/workspace/domain"
)

type contextKey struct{ name string }

var (
	userKey   = contextKey{"user"}
	accessKey = contextKey{"workspace_access"}
)

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *userdomain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user from ctx and true if set.
func UserFrom(ctx context.Context) (*userdomain.User, bool) {
	u, ok := ctx.Value(userKey).(*userdomain.User)
	return u, ok
}

// WithAccess returns a context carrying the caller's resolved workspace access.
func WithAccess(ctx context.Context, a *workspacedomain.Access) context.Context {
	return context.WithValue(ctx, accessKey, a)
}

// AccessFrom returns the resolved workspace access from ctx and true if set.
func AccessFrom(ctx context.Context) (*workspacedomain.Access, bool) {
	a, ok := ctx.Value(accessKey).(*workspacedomain.Access)
	return a, ok
}
