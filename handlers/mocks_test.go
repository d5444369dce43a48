package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/services"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Create(ctx context.Context, in services.CreateUserInput, meta models.RequestMeta) (*models.User, error) {
	args := m.Called(ctx, in, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id string, patch models.UserPatch, meta models.RequestMeta) (*models.User, error) {
	args := m.Called(ctx, id, patch, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	args := m.Called(ctx, id, meta)
	return args.Error(0)
}

func (m *MockUserService) AuthMethods(ctx context.Context, userID string) ([]models.AuthMethod, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuthMethod), args.Error(1)
}

// MockAdminService is a mock implementation of AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListUsers(ctx context.Context, page models.PageRequest) (*models.UserPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPage), args.Error(1)
}

func (m *MockAdminService) UpdateUserRole(ctx context.Context, id, role string, meta models.RequestMeta) (*models.User, error) {
	args := m.Called(ctx, id, role, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAdminService) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stats), args.Error(1)
}

// withURLParam attaches a chi route param the way the router would.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withPrincipal attaches a session the way the auth middleware would.
func withPrincipal(r *http.Request, id string, role auth.Role) *http.Request {
	return r.WithContext(auth.WithSession(r.Context(), &auth.Session{
		Principal: auth.Principal{ID: id, Role: role},
	}))
}
