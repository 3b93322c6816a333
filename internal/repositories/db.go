package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number of a unique key violation
const mysqlDuplicateEntry = 1062

// DBTX is the subset of *sql.DB and *sql.Tx used by the repositories
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction stored in ctx by Transactor, or db when there is none
func conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// Transactor runs units of work inside a single database transaction
type Transactor struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransactor creates a new transactor
func NewTransactor(db *sql.DB, logger *zap.Logger) *Transactor {
	return &Transactor{
		db:     db,
		logger: logger,
	}
}

// WithinTx runs fn inside a transaction carried by the context passed to fn.
// Repository calls made with that context join the transaction; a nested WithinTx reuses it.
// The transaction is committed when fn returns nil and rolled back otherwise.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		t.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		t.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isDuplicateEntry reports whether err is a MySQL unique key violation
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// notFound builds the error returned for a missing row of the given entity
func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, models.ErrNotFound)
}

// checkAffected turns a zero-row update or delete into a not found error
func checkAffected(result sql.Result, entity string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return notFound(entity)
	}
	return nil
}
