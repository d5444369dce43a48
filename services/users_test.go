package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

type userServiceFixture struct {
	users    *MockUserRepository
	accounts *MockAccountRepository
	sessions *MockSessionRepository
	tx       *MockTransactionManager
	auditor  *MockAuditor
	service  *UserService
}

func newUserServiceFixture() *userServiceFixture {
	f := &userServiceFixture{
		users:    new(MockUserRepository),
		accounts: new(MockAccountRepository),
		sessions: new(MockSessionRepository),
		tx:       new(MockTransactionManager),
		auditor:  new(MockAuditor),
	}
	repos := &repositories.Repositories{Users: f.users, Accounts: f.accounts, Sessions: f.sessions}
	f.service = NewUserService(repos, f.tx, f.auditor, zap.NewNop())
	return f
}

var testMeta = models.RequestMeta{ActorID: "admin-1", RequestID: "req-1"}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := newUserServiceFixture()
		want := models.NewUser("u1", "Ada", "ada@example.com", auth.RoleUser)
		f.users.On("GetByID", ctx, "u1").Return(want, nil)

		got, err := f.service.Get(ctx, "u1")

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not found", func(t *testing.T) {
		f := newUserServiceFixture()
		f.users.On("GetByID", ctx, "ghost").Return(nil, fmt.Errorf("wrapped: %w", repositories.ErrNotFound))

		_, err := f.service.Get(ctx, "ghost")

		assert.True(t, IsNotFoundError(err))
		assert.Equal(t, "User not found", GetErrorMessage(err))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		f := newUserServiceFixture()
		f.users.On("GetByID", ctx, "u1").Return(nil, errors.New("connection refused"))

		_, err := f.service.Get(ctx, "u1")

		assert.True(t, IsInternalError(err))
	})
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture()
	users := []*models.User{models.NewUser("u1", "Ada", "ada@example.com", auth.RoleUser)}
	f.users.On("List", ctx, 0, 0).Return(users, nil)

	got, err := f.service.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, users, got)
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success generates id and audits", func(t *testing.T) {
		f := newUserServiceFixture()
		f.users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
		f.auditor.On("LogUserCreated", mock.AnythingOfType("*models.User"), testMeta).Return(nil)

		user, err := f.service.Create(ctx, CreateUserInput{Name: "Ada", Email: "ada@example.com"}, testMeta)

		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, auth.RoleUser, user.Role)
		f.users.AssertExpectations(t)
		f.auditor.AssertExpectations(t)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		f := newUserServiceFixture()
		f.users.On("Create", ctx, mock.Anything).
			Return(fmt.Errorf("failed to create user: %w: users_email_key", repositories.ErrDuplicate))

		_, err := f.service.Create(ctx, CreateUserInput{Name: "Ada", Email: "ada@example.com"}, testMeta)

		assert.True(t, IsConflictError(err))
		assert.Equal(t, "Email already in use", GetErrorMessage(err))
		f.auditor.AssertNotCalled(t, "LogUserCreated", mock.Anything, mock.Anything)
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		f := newUserServiceFixture()
		f.users.On("Create", ctx, mock.Anything).
			Return(fmt.Errorf("failed to create user: %w: users_pkey", repositories.ErrDuplicate))

		_, err := f.service.Create(ctx, CreateUserInput{ID: "u1", Name: "Ada", Email: "ada@example.com"}, testMeta)

		assert.True(t, IsConflictError(err))
		assert.Equal(t, ErrDuplicateID.Message, GetErrorMessage(err))
	})

	t.Run("audit failure does not fail the request", func(t *testing.T) {
		f := newUserServiceFixture()
		f.users.On("Create", ctx, mock.Anything).Return(nil)
		f.auditor.On("LogUserCreated", mock.Anything, mock.Anything).Return(errors.New("audit event buffer full"))

		_, err := f.service.Create(ctx, CreateUserInput{Name: "Ada", Email: "ada@example.com"}, testMeta)

		assert.NoError(t, err)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("applies patch and refreshes updated_at", func(t *testing.T) {
		f := newUserServiceFixture()
		existing := models.NewUser("u1", "Ada", "ada@example.com", auth.RoleUser)
		existing.UpdatedAt = time.Now().Add(-time.Hour)
		before := existing.UpdatedAt
		name := "Ada Lovelace"

		f.users.On("GetByID", ctx, "u1").Return(existing, nil)
		f.users.On("Update", ctx, existing).Return(nil)
		f.auditor.On("LogUserUpdated", existing, testMeta, []string{"name"}).Return(nil)

		user, err := f.service.Update(ctx, "u1", models.UserPatch{Name: &name}, testMeta)

		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", user.Name)
		assert.True(t, user.UpdatedAt.After(before))
		f.auditor.AssertExpectations(t)
		f.auditor.AssertNotCalled(t, "LogUserRoleChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("role change records both entries", func(t *testing.T) {
		f := newUserServiceFixture()
		existing := models.NewUser("u1", "Ada", "ada@example.com", auth.RoleUser)
		role := auth.RoleAdmin

		f.users.On("GetByID", ctx, "u1").Return(existing, nil)
		f.users.On("Update", ctx, existing).Return(nil)
		f.auditor.On("LogUserUpdated", existing, testMeta, []string{"role"}).Return(nil)
		f.auditor.On("LogUserRoleChanged", "u1", auth.RoleUser, auth.RoleAdmin, testMeta).Return(nil)

		user, err := f.service.Update(ctx, "u1", models.UserPatch{Role: &role}, testMeta)

		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, user.Role)
		f.auditor.AssertExpectations(t)
	})

	t.Run("same role is not a role change", func(t *testing.T) {
		f := newUserServiceFixture()
		existing := models.NewUser("u1", "Ada", "ada@example.com", auth.RoleAdmin)
		role := auth.RoleAdmin

		f.users.On("GetByID", ctx, "u1").Return(existing, nil)
		f.users.On("Update", ctx, existing).Return(nil)
		f.auditor.On("LogUserUpdated", existing, testMeta, []string(nil)).Return(nil)

		_, err := f.service.Update(ctx, "u1", models.UserPatch{Role: &role}, testMeta)

		require.NoError(t, err)
		f.auditor.AssertNotCalled(t, "LogUserRoleChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newUserServiceFixture()
		f.users.On("GetByID", ctx, "ghost").Return(nil, repositories.ErrNotFound)

		_, err := f.service.Update(ctx, "ghost", models.UserPatch{}, testMeta)

		assert.True(t, IsNotFoundError(err))
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes sessions, accounts, then the user", func(t *testing.T) {
		f := newUserServiceFixture()
		var order []string
		f.tx.On("InTransaction", ctx)
		f.sessions.On("DeleteByUserID", ctx, "u1").Return(nil).Run(func(mock.Arguments) { order = append(order, "sessions") })
		f.accounts.On("DeleteByUserID", ctx, "u1").Return(nil).Run(func(mock.Arguments) { order = append(order, "accounts") })
		f.users.On("Delete", ctx, "u1").Return(nil).Run(func(mock.Arguments) { order = append(order, "user") })
		f.auditor.On("LogUserDeleted", "u1", testMeta).Return(nil)

		err := f.service.Delete(ctx, "u1", testMeta)

		require.NoError(t, err)
		assert.Equal(t, []string{"sessions", "accounts", "user"}, order)
		f.auditor.AssertExpectations(t)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newUserServiceFixture()
		f.tx.On("InTransaction", ctx)
		f.sessions.On("DeleteByUserID", ctx, "ghost").Return(nil)
		f.accounts.On("DeleteByUserID", ctx, "ghost").Return(nil)
		f.users.On("Delete", ctx, "ghost").Return(repositories.ErrNotFound)

		err := f.service.Delete(ctx, "ghost", testMeta)

		assert.True(t, IsNotFoundError(err))
		f.auditor.AssertNotCalled(t, "LogUserDeleted", mock.Anything, mock.Anything)
	})
}

func TestUserService_AuthMethods(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("maps accounts", func(t *testing.T) {
		f := newUserServiceFixture()
		f.accounts.On("ListByUserID", ctx, "u1").Return([]*models.Account{
			{ID: "a1", UserID: "u1", ProviderID: models.ProviderCredential, CreatedAt: now},
			{ID: "a2", UserID: "u1", ProviderID: models.ProviderGoogle, CreatedAt: now},
		}, nil)

		methods, err := f.service.AuthMethods(ctx, "u1")

		require.NoError(t, err)
		assert.Equal(t, []models.AuthMethod{
			{ProviderID: models.ProviderCredential, CreatedAt: now},
			{ProviderID: models.ProviderGoogle, CreatedAt: now},
		}, methods)
	})

	t.Run("none linked is an empty list", func(t *testing.T) {
		f := newUserServiceFixture()
		f.accounts.On("ListByUserID", ctx, "u1").Return([]*models.Account{}, nil)

		methods, err := f.service.AuthMethods(ctx, "u1")

		require.NoError(t, err)
		assert.NotNil(t, methods)
		assert.Empty(t, methods)
	})
}
