package middleware

import (
	"context"
	"net"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
)

// GetRequestID returns the request id assigned by chi's RequestID
// middleware, or "".
func GetRequestID(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// RequestMeta collects the request data recorded with audit events. The
// actor is the session principal when the request carries one.
func RequestMeta(r *http.Request) models.RequestMeta {
	meta := models.RequestMeta{
		RequestID: GetRequestID(r.Context()),
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		meta.ActorID = principal.ID
	}
	return meta
}

// clientIP strips the port from RemoteAddr. chi's RealIP has already
// replaced it with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
