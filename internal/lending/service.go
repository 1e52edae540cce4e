// Package lending executes the asset lifecycle transitions: loan, return, maintenance start and
// maintenance completion. Each transition is a single database transaction whose serialization
// point is the conditional asset state write in repo.AssetRepo.SetState.
package lending

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"time"

	"github.com/crucial707/hci-lending/internal/apperr"
	"github.com/crucial707/hci-lending/internal/repo"
	"github.com/lib/pq"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultLoanPeriod = 7 * 24 * time.Hour

	// DefaultReturnNotes is stored when a return is registered without notes.
	DefaultReturnNotes = "returned without remarks"
)

// Metric operation labels.
const (
	opLoan                = "loan"
	opReturn              = "return"
	opMaintenanceStart    = "maintenance_start"
	opMaintenanceComplete = "maintenance_complete"
)

// Options configures a Service. Zero values fall back to the defaults above.
type Options struct {
	Timeout    time.Duration
	LoanPeriod time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// Service is the loan and maintenance transaction manager.
type Service struct {
	db          *sql.DB
	assets      *repo.AssetRepo
	loans       *repo.LoanRepo
	maintenance *repo.MaintenanceRepo
	users       *repo.UserRepo
	audit       *repo.AuditRepo

	timeout    time.Duration
	loanPeriod time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewService(db *sql.DB, opts Options) *Service {
	s := &Service{
		db:          db,
		assets:      repo.NewAssetRepo(db),
		loans:       repo.NewLoanRepo(db),
		maintenance: repo.NewMaintenanceRepo(db),
		users:       repo.NewUserRepo(db),
		audit:       repo.NewAuditRepo(db),
		timeout:     opts.Timeout,
		loanPeriod:  opts.LoanPeriod,
		log:         opts.Logger,
		now:         opts.Now,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.loanPeriod <= 0 {
		s.loanPeriod = DefaultLoanPeriod
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// txRepos are the repos bound to one transaction.
type txRepos struct {
	assets      *repo.AssetRepo
	loans       *repo.LoanRepo
	maintenance *repo.MaintenanceRepo
	users       *repo.UserRepo
	audit       *repo.AuditRepo
}

// inTx runs fn inside a transaction bounded by the store timeout. Any error from fn rolls the
// transaction back; nothing fn wrote survives. Errors are classified before returning.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, r txRepos) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(ctx, err)
	}
	r := txRepos{
		assets:      s.assets.WithTx(tx),
		loans:       s.loans.WithTx(tx),
		maintenance: s.maintenance.WithTx(tx),
		users:       s.users.WithTx(tx),
		audit:       s.audit.WithTx(tx),
	}
	if err := fn(ctx, r); err != nil {
		_ = tx.Rollback()
		return classify(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, err)
	}
	return nil
}

// withTimeout bounds a read outside a transaction and classifies its error.
func (s *Service) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return classify(ctx, err)
	}
	return nil
}

// classify maps store failures onto the error taxonomy. Classified errors pass through unless
// the deadline expired underneath them; timeouts, cancellations, dropped connections and
// transient postgres errors become ErrUnavailable.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil || isTransient(err) {
		return apperr.ErrUnavailable.Wrap(err)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.ErrInternal.Wrap(err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08": // connection_exception
			return true
		case pqErr.Code == "40001", pqErr.Code == "40P01": // serialization_failure, deadlock_detected
			return true
		case pqErr.Code == "57014", pqErr.Code == "57P01": // query_canceled, admin_shutdown
			return true
		}
	}
	return false
}
