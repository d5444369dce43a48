package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/accounts-api/middleware"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/utils"
	"go.uber.org/zap"
)

// UpdateRoleRequest is the body of PATCH /api/admin/users/{id}/role. The
// role is checked by the service so that an unknown value is reported the
// same way from every caller.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// AdminService defines the administration operations
type AdminService interface {
	ListUsers(ctx context.Context, page models.PageRequest) (*models.UserPage, error)
	UpdateUserRole(ctx context.Context, id, role string, meta models.RequestMeta) (*models.User, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// AdminHandler handles /api/admin requests. Every route it serves is
// mounted behind the admin requirement.
type AdminHandler struct {
	admin  AdminService
	errors *ErrorTranslator
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin AdminService, errors *ErrorTranslator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		errors: errors,
		logger: logger,
	}
}

// HandleListUsers godoc
// @Summary List users one page at a time
// @Tags admin
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} utils.Response{data=models.UserPage}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /api/admin/users [get]
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := models.NewPageRequest(queryInt(query.Get("page")), queryInt(query.Get("limit")))

	result, err := h.admin.ListUsers(r.Context(), page)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	if result.Data == nil {
		result.Data = []*models.User{}
	}

	h.logger.Debug("listed users",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Int("page", result.Meta.Page),
		zap.Int("limit", result.Meta.Limit),
		zap.Int64("total", result.Meta.Total))
	_ = utils.WriteOK(w, result)
}

// HandleUpdateUserRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param body body UpdateRoleRequest true "New role (user or admin)"
// @Success 200 {object} utils.Response{data=models.User}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/admin/users/{id}/role [patch]
func (h *AdminHandler) HandleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}

	user, err := h.admin.UpdateUserRole(r.Context(), chi.URLParam(r, "id"), req.Role, middleware.RequestMeta(r))
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	_ = utils.WriteSuccess(w, http.StatusOK, "User role updated", user)
}

// HandleStats godoc
// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Success 200 {object} utils.Response{data=models.Stats}
// @Router /api/admin/stats [get]
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	_ = utils.WriteOK(w, stats)
}

// queryInt parses a query value, returning 0 for anything that is not a
// number so NewPageRequest falls back to its default.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
