package auth

import "context"

// Context keys for request-scoped data. Keep types unexported to avoid collisions.
type ctxKey string

const ctxKeySession ctxKey = "session"

// WithSession stores an authorized session on the context.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, session)
}

// SessionFromContext returns the session stored by WithSession, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKeySession).(*Session)
	return s
}

// PrincipalFromContext is a shorthand for handlers that only need the
// principal. ok is false when the request carries no session.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	s := SessionFromContext(ctx)
	if s == nil {
		return Principal{}, false
	}
	return s.Principal, true
}
