package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/hci-lending/internal/apperr"
	"github.com/crucial707/hci-lending/internal/models"
)

// LoanRepo persists loans and their return rows.
type LoanRepo struct {
	DB DBTX
}

func NewLoanRepo(db DBTX) *LoanRepo {
	return &LoanRepo{DB: db}
}

func (r *LoanRepo) WithTx(tx *sql.Tx) *LoanRepo {
	return &LoanRepo{DB: tx}
}

const loanColumns = `id, asset_id, borrower_id, actor_id, state, loaned_at, expected_return_at, returned_at`

func scanLoan(row interface{ Scan(...any) error }) (models.Loan, error) {
	var l models.Loan
	var returnedAt sql.NullTime
	err := row.Scan(&l.ID, &l.AssetID, &l.BorrowerID, &l.ActorID, &l.State, &l.LoanedAt, &l.ExpectedReturnAt, &returnedAt)
	if returnedAt.Valid {
		l.ReturnedAt = &returnedAt.Time
	}
	return l, err
}

// Insert creates the loan and sets l.ID. A second active loan for the same asset
// violates loans_one_active_per_asset and returns ErrDuplicate.
func (r *LoanRepo) Insert(ctx context.Context, l *models.Loan) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO loans (asset_id, borrower_id, actor_id, state, loaned_at, expected_return_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		l.AssetID, l.BorrowerID, l.ActorID, l.State, l.LoanedAt, l.ExpectedReturnAt,
	).Scan(&l.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Get returns a loan by id.
func (r *LoanRepo) Get(ctx context.Context, id int) (models.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
}

// GetForUpdate returns a loan by id and row-locks it until the surrounding transaction ends.
func (r *LoanRepo) GetForUpdate(ctx context.Context, id int) (models.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)
}

func (r *LoanRepo) get(ctx context.Context, query string, id int) (models.Loan, error) {
	l, err := scanLoan(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Loan{}, apperr.ErrLoanNotFound.WithDetail("loan %d not found", id)
	}
	return l, err
}

// MarkReturned closes an active loan. Returns ErrConflict if the loan is no longer active.
func (r *LoanRepo) MarkReturned(ctx context.Context, id int, at time.Time) error {
	return expectOneRow(r.DB.ExecContext(ctx,
		`UPDATE loans SET state = $1, returned_at = $2 WHERE id = $3 AND state = $4`,
		models.LoanReturned, at, id, models.LoanActive,
	))
}

// InsertReturn writes the single return row of a loan and sets ret.ID.
func (r *LoanRepo) InsertReturn(ctx context.Context, ret *models.Return) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO returns (loan_id, actor_id, returned_at, notes) VALUES ($1, $2, $3, $4) RETURNING id`,
		ret.LoanID, ret.ActorID, ret.ReturnedAt, ret.Notes,
	).Scan(&ret.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// LoanFilter narrows List. Zero values mean "any".
type LoanFilter struct {
	State      models.LoanState
	BorrowerID int
	AssetID    int
	Limit      int
	Offset     int
}

// List returns loans matching f, newest first.
func (r *LoanRepo) List(ctx context.Context, f LoanFilter) ([]models.Loan, error) {
	var where []string
	var args []any
	if f.State != "" {
		args = append(args, f.State)
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if f.BorrowerID > 0 {
		args = append(args, f.BorrowerID)
		where = append(where, fmt.Sprintf("borrower_id = $%d", len(args)))
	}
	if f.AssetID > 0 {
		args = append(args, f.AssetID)
		where = append(where, fmt.Sprintf("asset_id = $%d", len(args)))
	}
	limit, offset := clampPage(f.Limit, f.Offset)
	args = append(args, limit, offset)

	query := `SELECT ` + loanColumns + ` FROM loans`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY loaned_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.list(ctx, query, args...)
}

// ListOverdue returns active loans whose expected return is before now, oldest due first.
func (r *LoanRepo) ListOverdue(ctx context.Context, now time.Time) ([]models.Loan, error) {
	return r.list(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE state = $1 AND expected_return_at < $2 ORDER BY expected_return_at`,
		models.LoanActive, now)
}

func (r *LoanRepo) list(ctx context.Context, query string, args ...any) ([]models.Loan, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
