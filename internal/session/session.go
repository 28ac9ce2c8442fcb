// Package session resolves bearer tokens to authenticated users and carries
// the result through the request context.
package session

import (
	"context"

	"plata/internal/core"
)

// CookieName is the browser-facing session cookie. API clients may send the
// same token as a bearer Authorization header instead.
const CookieName = "plata_session"

// Store resolves a raw token to a live session.
type Store interface {
	SessionByToken(ctx context.Context, token string) (core.Session, error)
}

type contextKey struct{}

// WithSession returns a context carrying the authenticated session.
func WithSession(ctx context.Context, s core.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session placed by the auth middleware.
func FromContext(ctx context.Context) (core.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(core.Session)
	return s, ok
}
