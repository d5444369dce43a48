package services

import (
	"context"
	"strings"

	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

// AdminService implements the admin-only user operations.
type AdminService struct {
	users   repositories.UserRepository
	auditor Auditor
	logger  *zap.Logger
}

// NewAdminService creates a new AdminService instance
func NewAdminService(users repositories.UserRepository, auditor Auditor, logger *zap.Logger) *AdminService {
	return &AdminService{
		users:   users,
		auditor: auditor,
		logger:  logger,
	}
}

// ListUsers returns one page of users with its metadata. A page past the
// end yields no rows.
func (s *AdminService) ListUsers(ctx context.Context, page models.PageRequest) (*models.UserPage, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, WrapInternal("failed to count users", err)
	}

	users, err := s.users.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return nil, WrapInternal("failed to list users", err)
	}

	return &models.UserPage{
		Data: users,
		Meta: models.NewPageMeta(page, total),
	}, nil
}

// UpdateUserRole assigns role to a user. The role is checked before the
// store is touched.
func (s *AdminService) UpdateUserRole(ctx context.Context, id, role string, meta models.RequestMeta) (*models.User, error) {
	newRole, ok := auth.LookupRole(role)
	if !ok {
		return nil, NewValidationError(FieldError{
			Field:   "role",
			Message: "role must be one of: " + strings.Join(auth.RoleNames, ", "),
		})
	}

	previous, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userStoreError("failed to get user", err)
	}

	user, err := s.users.UpdateRole(ctx, id, newRole)
	if err != nil {
		return nil, userStoreError("failed to update user role", err)
	}

	s.logger.Info("user role updated",
		zap.String("user_id", id),
		zap.Stringer("from", previous.Role),
		zap.Stringer("to", newRole),
		zap.String("actor_id", meta.ActorID))

	if s.auditor != nil {
		if err := s.auditor.LogUserRoleChanged(id, previous.Role, newRole, meta); err != nil {
			s.logger.Warn("failed to queue audit event", zap.Error(err))
		}
	}

	return user, nil
}

// Stats returns the dashboard summary.
func (s *AdminService) Stats(ctx context.Context) (*models.Stats, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, WrapInternal("failed to count users", err)
	}
	return &models.Stats{TotalUsers: total}, nil
}
