package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/services"
	"go.uber.org/zap"
)

func newTestUserHandler() (*UserHandler, *MockUserService) {
	svc := new(MockUserService)
	logger := zap.NewNop()
	return NewUserHandler(svc, NewErrorTranslator(logger, false), logger), svc
}

func sampleUser(id string, role auth.Role) *models.User {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.User{
		ID:        id,
		Name:      "Ada",
		Email:     id + "@example.com",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserHandler_HandleList(t *testing.T) {
	t.Run("returns users in envelope", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("List", mock.Anything).Return([]*models.User{sampleUser("u1", auth.RoleUser), sampleUser("u2", auth.RoleAdmin)}, nil)

		rec := httptest.NewRecorder()
		handler.HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.True(t, body.Success)
		assert.Equal(t, "Success", body.Message)

		var users []map[string]interface{}
		require.NoError(t, json.Unmarshal(body.Data, &users))
		require.Len(t, users, 2)
		assert.Equal(t, "u1", users[0]["id"])
		assert.Equal(t, "admin", users[1]["role"])
		svc.AssertExpectations(t)
	})

	t.Run("empty store gives empty array", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("List", mock.Anything).Return(nil, nil)

		rec := httptest.NewRecorder()
		handler.HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

		assert.Equal(t, "[]", string(decodeEnvelope(t, rec).Data))
	})
}

func TestUserHandler_HandleGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Get", mock.Anything, "u1").Return(sampleUser("u1", auth.RoleUser), nil)

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/users/u1", nil), "id", "u1")
		rec := httptest.NewRecorder()
		handler.HandleGet(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"u1@example.com"`)
	})

	t.Run("not found", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Get", mock.Anything, "ghost").Return(nil, services.WrapNotFound(services.ErrUserNotFound, errors.New("not found")))

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil), "id", "ghost")
		rec := httptest.NewRecorder()
		handler.HandleGet(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", decodeEnvelope(t, rec).Message)
	})
}

func TestUserHandler_HandleCreate(t *testing.T) {
	t.Run("creates with default role", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Create", mock.Anything, services.CreateUserInput{
			Name:  "Ada",
			Email: "ada@example.com",
			Role:  auth.RoleUser,
		}, mock.MatchedBy(func(meta models.RequestMeta) bool {
			return meta.ActorID == "admin-1"
		})).Return(sampleUser("new", auth.RoleUser), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"name":"Ada","email":"ada@example.com"}`))
		req = withPrincipal(req, "admin-1", auth.RoleAdmin)
		rec := httptest.NewRecorder()
		handler.HandleCreate(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "User created successfully", body.Message)
		svc.AssertExpectations(t)
	})

	t.Run("explicit id and admin role", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Create", mock.Anything, services.CreateUserInput{
			ID:    "u9",
			Name:  "Root",
			Email: "root@example.com",
			Role:  auth.RoleAdmin,
		}, mock.Anything).Return(sampleUser("u9", auth.RoleAdmin), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"id":"u9","name":"Root","email":"root@example.com","role":"admin"}`))
		rec := httptest.NewRecorder()
		handler.HandleCreate(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{name: "missing name", body: `{"email":"a@example.com"}`, wantFields: []string{"name"}},
		{name: "bad email", body: `{"name":"A","email":"nope"}`, wantFields: []string{"email"}},
		{name: "unknown role", body: `{"name":"A","email":"a@example.com","role":"superuser"}`, wantFields: []string{"role"}},
		{name: "malformed json", body: `{"name":`, wantFields: []string{"body"}},
		{name: "empty body", body: ``, wantFields: []string{"body"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newTestUserHandler()

			rec := httptest.NewRecorder()
			handler.HandleCreate(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, "Validation Error", body.Message)

			var fields []services.FieldError
			require.NoError(t, json.Unmarshal(body.Errors, &fields))
			names := make([]string, len(fields))
			for i, f := range fields {
				names[i] = f.Field
			}
			assert.Equal(t, tt.wantFields, names)
			svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("duplicate email is conflict", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateEmail)

		rec := httptest.NewRecorder()
		handler.HandleCreate(rec, httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"name":"A","email":"a@example.com"}`)))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already in use", decodeEnvelope(t, rec).Message)
	})
}

func TestUserHandler_HandleUpdate(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		admin := auth.RoleAdmin
		svc.On("Update", mock.Anything, "u1", mock.MatchedBy(func(p models.UserPatch) bool {
			return p.Name != nil && *p.Name == "Grace" && p.Email == nil && p.Role != nil && *p.Role == admin
		}), mock.Anything).Return(sampleUser("u1", auth.RoleAdmin), nil)

		req := httptest.NewRequest(http.MethodPatch, "/api/users/u1", strings.NewReader(`{"name":"Grace","role":"admin"}`))
		req = withURLParam(req, "id", "u1")
		rec := httptest.NewRecorder()
		handler.HandleUpdate(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User updated successfully", decodeEnvelope(t, rec).Message)
		svc.AssertExpectations(t)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		handler, svc := newTestUserHandler()

		req := httptest.NewRequest(http.MethodPatch, "/api/users/u1", strings.NewReader(`{"name":""}`))
		req = withURLParam(req, "id", "u1")
		rec := httptest.NewRecorder()
		handler.HandleUpdate(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Update", mock.Anything, "ghost", mock.Anything, mock.Anything).Return(nil, services.WrapNotFound(services.ErrUserNotFound, nil))

		req := httptest.NewRequest(http.MethodPatch, "/api/users/ghost", strings.NewReader(`{}`))
		req = withURLParam(req, "id", "ghost")
		rec := httptest.NewRecorder()
		handler.HandleUpdate(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUserHandler_HandleDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Delete", mock.Anything, "u1", mock.Anything).Return(nil)

		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/users/u1", nil), "id", "u1")
		rec := httptest.NewRecorder()
		handler.HandleDelete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, "User deleted successfully", body.Message)
		assert.Equal(t, "null", string(body.Data))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("Delete", mock.Anything, "u1", mock.Anything).Return(services.WrapInternal("failed to delete user", errors.New("pq: deadlock")))

		req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/users/u1", nil), "id", "u1")
		rec := httptest.NewRecorder()
		handler.HandleDelete(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "deadlock")
	})
}

func TestUserHandler_HandleAuthMethods(t *testing.T) {
	t.Run("lists methods of the caller", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		svc.On("AuthMethods", mock.Anything, "u1").Return([]models.AuthMethod{{ProviderID: "google", CreatedAt: created}}, nil)

		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/users/me/auth-methods", nil), "u1", auth.RoleUser)
		rec := httptest.NewRecorder()
		handler.HandleAuthMethods(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"providerId":"google","createdAt":"2026-03-01T00:00:00Z"}]`, string(decodeEnvelope(t, rec).Data))
	})

	t.Run("no linked accounts", func(t *testing.T) {
		handler, svc := newTestUserHandler()
		svc.On("AuthMethods", mock.Anything, "u1").Return(nil, nil)

		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/users/me/auth-methods", nil), "u1", auth.RoleUser)
		rec := httptest.NewRecorder()
		handler.HandleAuthMethods(rec, req)

		assert.Equal(t, "[]", string(decodeEnvelope(t, rec).Data))
	})

	t.Run("no session", func(t *testing.T) {
		handler, svc := newTestUserHandler()

		rec := httptest.NewRecorder()
		handler.HandleAuthMethods(rec, httptest.NewRequest(http.MethodGet, "/api/users/me/auth-methods", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "AuthMethods", mock.Anything, mock.Anything)
	})
}
