package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repo can run inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	// ErrConflict is returned by conditional writes whose WHERE clause no longer matches.
	ErrConflict = errors.New("conditional write matched no rows")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("unique constraint violated")
)

// uniqueViolation is the postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// expectOneRow turns a zero-row conditional write into ErrConflict.
func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
