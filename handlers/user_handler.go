package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/middleware"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/services"
	"github.com/upb/accounts-api/utils"
	"go.uber.org/zap"
)

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	ID    string `json:"id" validate:"omitempty,max=255"`
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUserRequest is the body of PATCH /api/users/{id}. Omitted fields
// are left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitnil,min=1,max=255"`
	Email *string `json:"email" validate:"omitnil,email"`
	Role  *string `json:"role" validate:"omitnil,oneof=user admin"`
}

// UserService defines the user operations the handler needs
type UserService interface {
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, in services.CreateUserInput, meta models.RequestMeta) (*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch, meta models.RequestMeta) (*models.User, error)
	Delete(ctx context.Context, id string, meta models.RequestMeta) error
	AuthMethods(ctx context.Context, userID string) ([]models.AuthMethod, error)
}

// UserHandler handles /api/users requests
type UserHandler struct {
	users  UserService
	errors *ErrorTranslator
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, errors *ErrorTranslator, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		errors: errors,
		logger: logger,
	}
}

// HandleList godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} utils.Response{data=[]models.User}
// @Failure 401 {object} utils.Response
// @Router /api/users [get]
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	_ = utils.WriteOK(w, users)
}

// HandleGet godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} utils.Response{data=models.User}
// @Failure 404 {object} utils.Response
// @Router /api/users/{id} [get]
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleCreate godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param body body CreateUserRequest true "New user"
// @Success 201 {object} utils.Response{data=models.User}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /api/users [post]
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}

	// Validation already restricted the role to a known name or "".
	role, _ := auth.LookupRole(req.Role)
	user, err := h.users.Create(r.Context(), services.CreateUserInput{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		Role:  role,
	}, middleware.RequestMeta(r))
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	_ = utils.WriteCreated(w, "User created successfully", user)
}

// HandleUpdate godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param body body UpdateUserRequest true "Fields to change"
// @Success 200 {object} utils.Response{data=models.User}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/users/{id} [patch]
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}

	patch := models.UserPatch{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role, _ := auth.LookupRole(*req.Role)
		patch.Role = &role
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), patch, middleware.RequestMeta(r))
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	_ = utils.WriteSuccess(w, http.StatusOK, "User updated successfully", user)
}

// HandleDelete godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/users/{id} [delete]
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id"), middleware.RequestMeta(r)); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	_ = utils.WriteSuccess(w, http.StatusOK, "User deleted successfully", nil)
}

// HandleAuthMethods godoc
// @Summary List the caller's linked sign-in methods
// @Tags users
// @Produce json
// @Success 200 {object} utils.Response{data=[]models.AuthMethod}
// @Failure 401 {object} utils.Response
// @Router /api/users/me/auth-methods [get]
func (h *UserHandler) HandleAuthMethods(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		// Only reachable when the route is mounted without the gate.
		h.errors.WriteError(w, r, services.ErrUnauthenticated)
		return
	}

	methods, err := h.users.AuthMethods(r.Context(), principal.ID)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	if methods == nil {
		methods = []models.AuthMethod{}
	}

	h.logger.Debug("listed auth methods",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("principal_id", principal.ID),
		zap.Int("count", len(methods)))
	_ = utils.WriteOK(w, methods)
}
