package postgres

import (
	"context"
	"fmt"

	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, resource_type, resource_id,
			details, ip_address, user_agent, request_id, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		details,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// ListByResource retrieves the audit trail of one resource, newest first
func (r *AuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, actor_id, action, resource_type, resource_id,
		       details, ip_address, user_agent, request_id, timestamp
		FROM audit_logs
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY timestamp DESC
		LIMIT $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, resourceType, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log := &models.AuditLog{}
		var details []byte
		if err := rows.Scan(
			&log.ID,
			&log.ActorID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&details,
			&log.IPAddress,
			&log.UserAgent,
			&log.RequestID,
			&log.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		log.Details = details
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}
