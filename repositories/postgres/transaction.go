package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/accounts-api/repositories"
	"go.uber.org/zap"
)

// transactionContextKey is the context key for storing transactions
type transactionContextKey struct{}

// TransactionManager implements the TransactionManager interface
type TransactionManager struct {
	db     *DB
	logger *zap.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *DB, logger *zap.Logger) repositories.TransactionManager {
	return &TransactionManager{
		db:     db,
		logger: logger,
	}
}

// Begin starts a new transaction. Repositories called with the returned
// transaction's Context run inside it.
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	sqlTx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Transaction{tx: sqlTx, logger: tm.logger}
	tx.ctx = context.WithValue(ctx, transactionContextKey{}, tx)

	tm.logger.Debug("transaction started")
	return tx, nil
}

// InTransaction executes fn within a transaction. It commits when fn
// returns nil and rolls back on error or panic.
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx.Context(), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			tm.logger.Error("failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("original_error", err),
			)
		}
		return err
	}

	return tx.Commit()
}

// Transaction implements the Transaction interface
type Transaction struct {
	tx     *sql.Tx
	ctx    context.Context
	logger *zap.Logger
}

// Commit commits the transaction
func (t *Transaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.logger.Debug("transaction committed")
	return nil
}

// Rollback rolls back the transaction. Rolling back a finished transaction is a no-op.
func (t *Transaction) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	t.logger.Debug("transaction rolled back")
	return nil
}

// Context returns a context bound to this transaction
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// Executor is satisfied by both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GetExecutor returns the transaction bound to ctx when there is one,
// otherwise the pool.
func GetExecutor(ctx context.Context, db *DB) Executor {
	if tx, ok := ctx.Value(transactionContextKey{}).(*Transaction); ok {
		return tx.tx
	}
	return db.DB
}
