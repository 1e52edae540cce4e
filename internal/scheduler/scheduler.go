// Package scheduler runs the periodic lending sweeps: overdue loans and the asset state/record
// consistency check.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/hci-lending/internal/metrics"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/robfig/cron/v3"
)

// Sweeper is the part of the lending service the sweeps read from.
type Sweeper interface {
	ListOverdue(ctx context.Context) ([]models.Loan, error)
	ConsistencyViolations(ctx context.Context) ([]models.AssetRecordCounts, error)
}

type Scheduler struct {
	c       *cron.Cron
	svc     Sweeper
	log     *slog.Logger
	timeout time.Duration
}

// New creates a scheduler. Overlapping runs of the same sweep are skipped.
func New(svc Sweeper, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		c:       cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		svc:     svc,
		log:     log,
		timeout: time.Minute,
	}
}

// Schedule registers the sweeps. An empty expression leaves that sweep disabled.
func (s *Scheduler) Schedule(overdueExpr, consistencyExpr string) error {
	if overdueExpr != "" {
		if _, err := s.c.AddFunc(overdueExpr, func() { s.run("overdue", s.SweepOverdue) }); err != nil {
			return fmt.Errorf("overdue sweep cron %q: %w", overdueExpr, err)
		}
		s.log.Info("scheduler: overdue sweep enabled", "cron", overdueExpr)
	}
	if consistencyExpr != "" {
		if _, err := s.c.AddFunc(consistencyExpr, func() { s.run("consistency", s.SweepConsistency) }); err != nil {
			return fmt.Errorf("consistency sweep cron %q: %w", consistencyExpr, err)
		}
		s.log.Info("scheduler: consistency sweep enabled", "cron", consistencyExpr)
	}
	return nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop stops scheduling and returns a context that is done when running sweeps finish.
func (s *Scheduler) Stop() context.Context { return s.c.Stop() }

func (s *Scheduler) run(name string, sweep func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := sweep(ctx)
	if err != nil {
		s.log.Error("scheduler: sweep failed", "sweep", name, "error", err)
		return
	}
	s.log.Debug("scheduler: sweep done", "sweep", name, "found", n)
}

// SweepOverdue publishes the number of overdue loans and logs each one.
func (s *Scheduler) SweepOverdue(ctx context.Context) (int, error) {
	loans, err := s.svc.ListOverdue(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetOverdueLoans(len(loans))
	for _, l := range loans {
		s.log.Warn("loan overdue",
			"loan_id", l.ID, "asset_id", l.AssetID, "borrower_id", l.BorrowerID,
			"expected_return_at", l.ExpectedReturnAt)
	}
	return len(loans), nil
}

// SweepConsistency counts assets whose state disagrees with their open records. Every hit is
// logged at error level; none is repaired automatically.
func (s *Scheduler) SweepConsistency(ctx context.Context) (int, error) {
	bad, err := s.svc.ConsistencyViolations(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetInconsistentAssets(len(bad))
	for _, c := range bad {
		metrics.IncInconsistency("sweep")
		s.log.Error("asset state inconsistent",
			"asset_id", c.AssetID, "state", c.State,
			"active_loans", c.ActiveLoans, "open_maintenance", c.OpenMaintenance)
	}
	return len(bad), nil
}
