package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/accounts-api/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 5 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// HandleStatus handles GET /status. The body is not wrapped in the
// envelope; existing monitors match on it verbatim.
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "API is running"})
}

// HandleHealth handles GET /healthz
// Always 200 while the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	var err error
	if healthy {
		err = utils.WriteOK(w, response)
	} else {
		response.Status = "unhealthy"
		err = utils.WriteJSON(w, http.StatusServiceUnavailable, utils.Response{
			Success: false,
			Message: "Service Unavailable",
			Data:    response,
		})
	}
	if err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	if err := h.db.PingContext(ctx); err != nil {
		return err
	}
	var result int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}
