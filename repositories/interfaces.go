package repositories

import (
	"context"
	"errors"

	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn run inside it.
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicate when the id or email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*models.User, error)

	// List retrieves users newest first. A limit of 0 means no limit.
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Count returns the total number of users
	Count(ctx context.Context) (int64, error)

	// Update writes name, email, role and updated_at of an existing user
	Update(ctx context.Context, user *models.User) error

	// UpdateRole sets the role of a user and returns the updated row
	UpdateRole(ctx context.Context, id string, role auth.Role) (*models.User, error)

	// Delete deletes a user
	Delete(ctx context.Context, id string) error
}

// AccountRepository reads the linked authentication methods written by the
// identity provider.
type AccountRepository interface {
	// ListByUserID returns the accounts linked to a user, oldest first
	ListByUserID(ctx context.Context, userID string) ([]*models.Account, error)

	// DeleteByUserID removes every account linked to a user
	DeleteByUserID(ctx context.Context, userID string) error
}

// SessionRepository manages the provider's session rows on behalf of
// user deletion.
type SessionRepository interface {
	// DeleteByUserID removes every session of a user
	DeleteByUserID(ctx context.Context, userID string) error
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// ListByResource retrieves the audit trail of one resource, newest first
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Accounts  AccountRepository
	Sessions  SessionRepository
	AuditLogs AuditRepository
}
