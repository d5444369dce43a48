package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

// Auditor records user lifecycle events. Implementations must not block.
type Auditor interface {
	LogUserCreated(user *models.User, meta models.RequestMeta) error
	LogUserUpdated(user *models.User, meta models.RequestMeta, changed []string) error
	LogUserDeleted(userID string, meta models.RequestMeta) error
	LogUserRoleChanged(userID string, from, to auth.Role, meta models.RequestMeta) error
}

// CreateUserInput carries a validated create request.
type CreateUserInput struct {
	ID    string
	Name  string
	Email string
	Role  auth.Role
}

// UserService implements the user resource operations.
type UserService struct {
	users    repositories.UserRepository
	accounts repositories.AccountRepository
	sessions repositories.SessionRepository
	tx       repositories.TransactionManager
	auditor  Auditor
	logger   *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(repos *repositories.Repositories, tx repositories.TransactionManager, auditor Auditor, logger *zap.Logger) *UserService {
	return &UserService{
		users:    repos.Users,
		accounts: repos.Accounts,
		sessions: repos.Sessions,
		tx:       tx,
		auditor:  auditor,
		logger:   logger,
	}
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx, 0, 0)
	if err != nil {
		return nil, WrapInternal("failed to list users", err)
	}
	return users, nil
}

// Get returns one user or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userStoreError("failed to get user", err)
	}
	return user, nil
}

// Create inserts a new user. An empty id is replaced with a random UUID.
func (s *UserService) Create(ctx context.Context, in CreateUserInput, meta models.RequestMeta) (*models.User, error) {
	user := models.NewUser(in.ID, in.Name, in.Email, in.Role)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, userStoreError("failed to create user", err)
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.Stringer("role", user.Role),
		zap.String("actor_id", meta.ActorID))
	s.audit(func() error { return s.auditor.LogUserCreated(user, meta) })

	return user, nil
}

// Update applies a partial update. updated_at is refreshed even when no
// field changes.
func (s *UserService) Update(ctx context.Context, id string, patch models.UserPatch, meta models.RequestMeta) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userStoreError("failed to get user", err)
	}

	previousRole := user.Role
	changed := patch.Apply(user)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, userStoreError("failed to update user", err)
	}

	s.logger.Info("user updated",
		zap.String("user_id", user.ID),
		zap.Strings("changed", changed),
		zap.String("actor_id", meta.ActorID))
	s.audit(func() error { return s.auditor.LogUserUpdated(user, meta, changed) })
	if slices.Contains(changed, "role") {
		s.audit(func() error { return s.auditor.LogUserRoleChanged(user.ID, previousRole, user.Role, meta) })
	}

	return user, nil
}

// Delete removes a user together with its sessions and linked accounts.
func (s *UserService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	err := s.tx.InTransaction(ctx, func(ctx context.Context, tx repositories.Transaction) error {
		if err := s.sessions.DeleteByUserID(ctx, id); err != nil {
			return err
		}
		if err := s.accounts.DeleteByUserID(ctx, id); err != nil {
			return err
		}
		return s.users.Delete(ctx, id)
	})
	if err != nil {
		return userStoreError("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", meta.ActorID))
	s.audit(func() error { return s.auditor.LogUserDeleted(id, meta) })

	return nil
}

// AuthMethods lists the authentication methods linked to a user.
func (s *UserService) AuthMethods(ctx context.Context, userID string) ([]models.AuthMethod, error) {
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, WrapInternal("failed to list auth methods", err)
	}

	methods := make([]models.AuthMethod, 0, len(accounts))
	for _, a := range accounts {
		methods = append(methods, models.AuthMethod{ProviderID: a.ProviderID, CreatedAt: a.CreatedAt})
	}
	return methods, nil
}

func (s *UserService) audit(fn func() error) {
	if s.auditor == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("failed to queue audit event", zap.Error(err))
	}
}

// userStoreError maps repository errors onto the domain taxonomy.
func userStoreError(message string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return WrapNotFound(ErrUserNotFound, err)
	case errors.Is(err, repositories.ErrDuplicate):
		if strings.Contains(err.Error(), "email") {
			return NewDomainError(ErrorTypeConflict, ErrDuplicateEmail.Message, err)
		}
		return NewDomainError(ErrorTypeConflict, ErrDuplicateID.Message, err)
	default:
		return WrapInternal(message, err)
	}
}
