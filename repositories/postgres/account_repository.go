package postgres

import (
	"context"
	"fmt"

	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

// AccountRepository implements repositories.AccountRepository
type AccountRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB, logger *zap.Logger) repositories.AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

// ListByUserID returns the accounts linked to a user, oldest first
func (r *AccountRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Account, error) {
	query := `
		SELECT id, user_id, account_id, provider_id, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		account := &models.Account{}
		if err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.AccountID,
			&account.ProviderID,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	return accounts, nil
}

// DeleteByUserID removes every account linked to a user
func (r *AccountRepository) DeleteByUserID(ctx context.Context, userID string) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete accounts: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		r.logger.Debug("accounts deleted", zap.String("user_id", userID), zap.Int64("count", n))
	}
	return nil
}

// SessionRepository implements repositories.SessionRepository
type SessionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB, logger *zap.Logger) repositories.SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// DeleteByUserID removes every session of a user
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		r.logger.Debug("sessions deleted", zap.String("user_id", userID), zap.Int64("count", n))
	}
	return nil
}
