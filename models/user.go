package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/upb/accounts-api/internal/auth"
)

// User represents an account holder. Credentials and linked providers live
// in the identity provider's tables; this row carries profile data and the
// role used for authorization.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Image         *string   `json:"image"`
	Role          auth.Role `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewUser creates a new User instance. An empty id gets a random UUID.
func NewUser(id, name, email string, role auth.Role) *User {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &User{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

// UserPatch carries the optional fields of a partial update. Nil means
// "leave unchanged".
type UserPatch struct {
	Name  *string
	Email *string
	Role  *auth.Role
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil
}

// Apply copies the set fields onto u and returns the names of the fields
// whose values changed.
func (p UserPatch) Apply(u *User) []string {
	var changed []string
	if p.Name != nil && *p.Name != u.Name {
		u.Name = *p.Name
		changed = append(changed, "name")
	}
	if p.Email != nil && *p.Email != u.Email {
		u.Email = *p.Email
		changed = append(changed, "email")
	}
	if p.Role != nil && *p.Role != u.Role {
		u.Role = *p.Role
		changed = append(changed, "role")
	}
	return changed
}
