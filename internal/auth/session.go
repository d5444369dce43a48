package auth

import (
	"encoding/json"
	"time"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Session is the provider-issued proof of authentication for one request.
// It is never cached across requests.
type Session struct {
	Principal Principal
	ExpiresAt time.Time
	// Raw keeps the provider payload as received, for handlers that need
	// provider specific fields.
	Raw json.RawMessage
}

// Expired reports whether the session carries an expiry that has passed.
// A zero ExpiresAt means the provider did not report one.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
