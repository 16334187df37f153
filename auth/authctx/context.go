// Package authctx carries the authenticated principal and its token claims
// through a request context.
//
// The authentication middleware stores both once a request passes the gate;
// handlers read them back with a type parameter so this package stays free of
// any particular user type.
//
//	ctx = authctx.WithPrincipal(ctx, user)
//	user, ok := authctx.Principal[*store.User](ctx)
package authctx

import (
	"context"
	"errors"

	"github.com/kbukum/todoapi/auth/jwt"
)

type contextKey int

const (
	principalKey contextKey = iota
	claimsKey
)

// ErrNoPrincipal is returned when the context carries no principal of the
// requested type.
var ErrNoPrincipal = errors.New("authctx: no principal in context")

// WithPrincipal stores the authenticated principal.
func WithPrincipal(ctx context.Context, principal any) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// Principal returns the principal stored in ctx if it has type T.
func Principal[T any](ctx context.Context) (T, bool) {
	p, ok := ctx.Value(principalKey).(T)
	return p, ok
}

// MustPrincipal is Principal for handlers mounted behind the auth
// middleware. It panics when the principal is missing.
func MustPrincipal[T any](ctx context.Context) T {
	p, ok := Principal[T](ctx)
	if !ok {
		panic("authctx: principal not found in context or wrong type")
	}
	return p
}

// PrincipalOrError returns ErrNoPrincipal instead of panicking.
func PrincipalOrError[T any](ctx context.Context) (T, error) {
	p, ok := Principal[T](ctx)
	if !ok {
		var zero T
		return zero, ErrNoPrincipal
	}
	return p, nil
}

// WithClaims stores the verified token claims.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Claims returns the verified token claims, or nil.
func Claims(ctx context.Context) *jwt.Claims {
	c, _ := ctx.Value(claimsKey).(*jwt.Claims)
	return c
}
