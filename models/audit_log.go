package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionUserCreated     AuditAction = "user_created"
	AuditActionUserUpdated     AuditAction = "user_updated"
	AuditActionUserDeleted     AuditAction = "user_deleted"
	AuditActionUserRoleChanged AuditAction = "user_role_changed"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id"`
	ActorID      *string         `json:"actorId,omitempty"`
	Action       AuditAction     `json:"action"`
	ResourceType string          `json:"resourceType"`
	ResourceID   string          `json:"resourceId"`
	Details      json.RawMessage `json:"details"` // JSONB for flexible metadata
	IPAddress    string          `json:"ipAddress"`
	UserAgent    string          `json:"userAgent"`
	RequestID    string          `json:"requestId"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, resourceType, resourceID string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Timestamp:    time.Now().UTC(),
	}
}

// WithActor sets the principal that performed the action
func (a *AuditLog) WithActor(actorID string) *AuditLog {
	if actorID != "" {
		a.ActorID = &actorID
	}
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(meta RequestMeta) *AuditLog {
	a.RequestID = meta.RequestID
	a.IPAddress = meta.IPAddress
	a.UserAgent = meta.UserAgent
	return a
}

// RequestMeta is the request information recorded alongside audit events.
type RequestMeta struct {
	ActorID   string
	RequestID string
	IPAddress string
	UserAgent string
}
