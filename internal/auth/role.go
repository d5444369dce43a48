package auth

import "fmt"

// Role is the access level of a principal.
type Role uint8

const (
	// RoleUser is the default role. Any role value that is missing or not
	// recognized resolves to RoleUser.
	RoleUser Role = iota
	// RoleAdmin can do everything RoleUser can, plus administration.
	RoleAdmin
)

const (
	roleUserName  = "user"
	roleAdminName = "admin"
)

// RoleNames lists the accepted wire values, in ascending privilege order.
var RoleNames = []string{roleUserName, roleAdminName}

// ParseRole maps raw role data coming from outside the service (provider
// sessions, token claims, stored rows) onto a Role. Only the exact value
// "admin" yields RoleAdmin; everything else is RoleUser.
func ParseRole(s string) Role {
	if s == roleAdminName {
		return RoleAdmin
	}
	return RoleUser
}

// LookupRole is the strict counterpart of ParseRole, used for client input.
func LookupRole(s string) (Role, bool) {
	switch s {
	case roleUserName:
		return RoleUser, true
	case roleAdminName:
		return RoleAdmin, true
	default:
		return RoleUser, false
	}
}

// String returns the wire name of the role.
func (r Role) String() string {
	if r == RoleAdmin {
		return roleAdminName
	}
	return roleUserName
}

// Satisfies reports whether r grants at least the privileges of min.
func (r Role) Satisfies(min Role) bool {
	return r >= min
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unlike ParseRole it
// rejects unknown values.
func (r *Role) UnmarshalText(text []byte) error {
	role, ok := LookupRole(string(text))
	if !ok {
		return fmt.Errorf("unknown role %q", string(text))
	}
	*r = role
	return nil
}
