package middleware

import (
	"net/http"

	"github.com/upb/accounts-api/identity"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/internal/observability"
	"github.com/upb/accounts-api/services"
	"go.uber.org/zap"
)

// ErrorWriter renders an error through the service's single translator.
type ErrorWriter interface {
	WriteError(w http.ResponseWriter, r *http.Request, err error)
}

// AuthMiddleware resolves the session of each request and enforces the
// requirement of the route it guards.
type AuthMiddleware struct {
	provider identity.Provider
	errors   ErrorWriter
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. metrics may be nil.
func NewAuthMiddleware(provider identity.Provider, errors ErrorWriter, metrics *observability.Metrics, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		provider: provider,
		errors:   errors,
		metrics:  metrics,
		logger:   logger,
	}
}

// Require returns middleware that lets a request through only when its
// session satisfies req. The session, when present, is stored in the
// request context for handlers.
func (m *AuthMiddleware) Require(req auth.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			session := m.resolve(r, req)

			decision := auth.Authorize(session, req)
			if !decision.Allowed {
				m.metrics.ObserveDecision(req.String(), decision.Reason.String())
				fields := []zap.Field{
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path),
					zap.Stringer("required_role", req),
					zap.Stringer("reason", decision.Reason),
				}
				if session != nil {
					fields = append(fields, zap.String("principal_id", session.Principal.ID))
				}
				m.logger.Warn("request rejected", fields...)

				m.errors.WriteError(w, r, rejectError(decision.Reason))
				return
			}
			m.metrics.ObserveDecision(req.String(), "allow")

			if session != nil {
				ctx = auth.WithSession(ctx, session)
				m.logger.Debug("request authorized",
					zap.String("request_id", requestID),
					zap.String("principal_id", session.Principal.ID),
					zap.Stringer("role", session.Principal.Role),
					zap.Stringer("required_role", req))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolve asks the provider for the session. A provider failure is logged
// and treated as no session.
func (m *AuthMiddleware) resolve(r *http.Request, req auth.Requirement) *auth.Session {
	session, err := m.provider.Session(r.Context(), r.Header)
	if err != nil {
		m.metrics.ObserveSessionLookup(observability.SessionError)
		m.logger.Error("session lookup failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Stringer("required_role", req),
			zap.Error(err))
		return nil
	}
	if session == nil {
		m.metrics.ObserveSessionLookup(observability.SessionAbsent)
		return nil
	}
	m.metrics.ObserveSessionLookup(observability.SessionPresent)
	return session
}

func rejectError(reason auth.RejectReason) error {
	if reason == auth.RejectForbidden {
		return services.ErrForbidden
	}
	return services.ErrUnauthenticated
}
