package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upb/accounts-api/internal/auth"
	"github.com/upb/accounts-api/models"
	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

const userColumns = `id, name, email, email_verified, image, role, created_at, updated_at`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser reads one users row. The stored role is free text written by
// the identity provider, so it is normalized here.
func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var image, role sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.EmailVerified,
		&image,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if image.Valid {
		user.Image = &image.String
	}
	user.Role = auth.ParseRole(role.String)
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.EmailVerified,
		user.Image,
		user.Role.String(),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}

	r.logger.Debug("user created", zap.String("id", user.ID), zap.String("email", user.Email))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	user, err := scanUser(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, translateError(err))
	}

	return user, nil
}

// List retrieves users newest first
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2,
		    email = $3,
		    role = $4,
		    updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role.String(),
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("failed to update user %s: %w", user.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("user updated", zap.String("id", user.ID))
	return nil
}

// UpdateRole sets the role of a user and returns the updated row
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role auth.Role) (*models.User, error) {
	query := `
		UPDATE users
		SET role = $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns

	executor := GetExecutor(ctx, r.db)
	user, err := scanUser(executor.QueryRowContext(ctx, query, id, role.String(), time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to update role of user %s: %w", id, translateError(err))
	}

	r.logger.Debug("user role updated", zap.String("id", id), zap.Stringer("role", role))
	return user, nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("failed to delete user %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("user deleted", zap.String("id", id))
	return nil
}
