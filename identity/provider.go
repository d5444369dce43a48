// Package identity resolves the session attached to an inbound request by
// asking the external identity provider. Credential flows themselves
// (sign-up, sign-in, password changes) belong to the provider.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/upb/accounts-api/internal/auth"
)

var (
	// ErrProviderUnavailable is returned when the identity provider cannot
	// answer. Callers treat it as "no session".
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// ErrMalformedSession is returned when the provider answers with a
	// payload that cannot be read.
	ErrMalformedSession = errors.New("malformed session payload")
)

// Provider resolves the session carried by request headers.
//
// (session, nil) means a valid session; (nil, nil) means none was
// presented or it is invalid or expired; (nil, err) means the provider
// failed and the caller must fail closed.
type Provider interface {
	Session(ctx context.Context, header http.Header) (*auth.Session, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, header http.Header) (*auth.Session, error)

// Session calls f.
func (f ProviderFunc) Session(ctx context.Context, header http.Header) (*auth.Session, error) {
	return f(ctx, header)
}

// Cookie names checked for a bearer credential when no Authorization
// header is present.
const (
	AuthTokenCookieName = "auth_token"
	SessionCookieName   = "session"
)

// extractToken returns the bearer token from the Authorization header,
// falling back to the auth_token or session cookie. The header wins when
// both are present.
func extractToken(header http.Header) string {
	if token := extractBearerToken(header); token != "" {
		return token
	}
	r := http.Request{Header: header}
	for _, name := range []string{AuthTokenCookieName, SessionCookieName} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

func extractBearerToken(header http.Header) string {
	authHeader := header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
