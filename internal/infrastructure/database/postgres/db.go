package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/infrastructure/monitoring"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

// querier is what both a pool and a transaction can run statements on.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	uniqueViolation = "23505"

	constraintLoanNumber  = "loans_loan_number_key"
	constraintClientPhone = "client_phones_phone_key"
	constraintAgentPhone  = "agents_phone_key"
	constraintRequestKey  = "emi_records_request_key_key"
)

// translateDBError maps driver errors onto the application sentinels. Unique violations
// are reported by constraint so callers can tell which identity collided.
func translateDBError(err error, logger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			logger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			switch pgErr.ConstraintName {
			case constraintLoanNumber:
				return fmt.Errorf("%w: %s", apperrors.ErrDuplicateLoanNumber, pgErr.Detail)
			case constraintClientPhone:
				return fmt.Errorf("%w: %s", apperrors.ErrDuplicateClient, pgErr.Detail)
			case constraintAgentPhone:
				return fmt.Errorf("%w: %s", apperrors.ErrDuplicateAgent, pgErr.Detail)
			}
			return fmt.Errorf("%w: %s", apperrors.ErrConflict, pgErr.ConstraintName)
		}

		logger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	logger.Error("Generic database error", "error", err)
	return apperrors.WrapDatabaseError(err)
}

// observe records the duration of a named query once it finishes.
func observe(name string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		status = "error"
	}
	monitoring.RecordDBQuery(name, status, time.Since(start))
}

type txManager struct {
	db     DBPool
	logger *slog.Logger
}

func (m txManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}
	return tx, nil
}

func (m txManager) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return apperrors.WrapDatabaseError(err)
	}
	return nil
}

func (m txManager) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		m.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return apperrors.WrapDatabaseError(err)
	}
	return nil
}
