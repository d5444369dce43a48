package handlers

import (
	"net/http"

	"github.com/upb/accounts-api/middleware"
	"github.com/upb/accounts-api/services"
	"github.com/upb/accounts-api/utils"
	"go.uber.org/zap"
)

// ErrorTranslator maps domain errors to HTTP responses. It is the only place
// an error becomes a status code.
type ErrorTranslator struct {
	logger         *zap.Logger
	exposeInternal bool
}

// NewErrorTranslator creates a new ErrorTranslator. exposeInternal adds the
// wrapped error text to 500 responses and must only be set in development.
func NewErrorTranslator(logger *zap.Logger, exposeInternal bool) *ErrorTranslator {
	return &ErrorTranslator{
		logger:         logger,
		exposeInternal: exposeInternal,
	}
}

// WriteError writes the envelope for err.
func (t *ErrorTranslator) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, services.GetErrorMessage(err))

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, "Validation Error", services.GetErrorFields(err))

	case services.IsUnauthenticatedError(err):
		writeErr = utils.WriteUnauthorized(w, "Unauthorized")

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, "Forbidden")

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, services.GetErrorMessage(err))

	case services.IsRateLimitError(err):
		writeErr = utils.WriteTooManyRequests(w, services.GetErrorMessage(err))

	default:
		// Internal and unknown errors. The detail never leaves the process
		// outside development.
		t.logger.Error("internal server error",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Error(err))

		var detail interface{}
		if t.exposeInternal {
			detail = map[string]string{"detail": err.Error()}
		}
		writeErr = utils.WriteInternalServerError(w, services.ErrInternal.Message, detail)
	}

	if writeErr != nil {
		t.logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// NotFound answers unmatched routes.
func (t *ErrorTranslator) NotFound(w http.ResponseWriter, r *http.Request) {
	t.WriteError(w, r, services.ErrRouteNotFound)
}

// MethodNotAllowed answers a known route called with the wrong method.
func (t *ErrorTranslator) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil); err != nil {
		t.logger.Error("failed to write error response", zap.Error(err))
	}
}
