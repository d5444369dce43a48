package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if users := args.Get(0); users != nil {
		return users.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id string, role auth.Role) (*models.User, error) {
	args := m.Called(ctx, id, role)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Account, error) {
	args := m.Called(ctx, userID)
	if accounts := args.Get(0); accounts != nil {
		return accounts.([]*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockTransactionManager runs fn directly so the repositories it calls are
// still checked against their expectations.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	m.Called(ctx)
	return fn(ctx, nil)
}

// MockAuditor is a mock implementation of Auditor
type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) LogUserCreated(user *models.User, meta models.RequestMeta) error {
	return m.Called(user, meta).Error(0)
}

func (m *MockAuditor) LogUserUpdated(user *models.User, meta models.RequestMeta, changed []string) error {
	return m.Called(user, meta, changed).Error(0)
}

func (m *MockAuditor) LogUserDeleted(userID string, meta models.RequestMeta) error {
	return m.Called(userID, meta).Error(0)
}

func (m *MockAuditor) LogUserRoleChanged(userID string, from, to auth.Role, meta models.RequestMeta) error {
	return m.Called(userID, from, to, meta).Error(0)
}
