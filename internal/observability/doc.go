// Package observability builds the process logger and the Prometheus
// collectors shared by the HTTP middleware and the session gate.
package observability
