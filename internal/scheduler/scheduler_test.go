package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/crucial707/hci-lending/internal/metrics"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	overdue []models.Loan
	bad     []models.AssetRecordCounts
	err     error
}

func (f *fakeSweeper) ListOverdue(ctx context.Context) ([]models.Loan, error) {
	return f.overdue, f.err
}

func (f *fakeSweeper) ConsistencyViolations(ctx context.Context) ([]models.AssetRecordCounts, error) {
	return f.bad, f.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSweepOverdue_SetsGauge(t *testing.T) {
	now := time.Now()
	s := New(&fakeSweeper{overdue: []models.Loan{
		{ID: 1, AssetID: 8, ExpectedReturnAt: now.Add(-time.Hour)},
		{ID: 2, AssetID: 9, ExpectedReturnAt: now.Add(-48 * time.Hour)},
	}}, quiet())

	n, err := s.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.OverdueLoans))
}

func TestSweepConsistency(t *testing.T) {
	s := New(&fakeSweeper{bad: []models.AssetRecordCounts{
		{AssetID: 3, State: models.AssetLoaned, ActiveLoans: 0},
	}}, quiet())

	n, err := s.SweepConsistency(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.InconsistentAssets))
}

func TestSweep_Error(t *testing.T) {
	s := New(&fakeSweeper{err: errors.New("store down")}, quiet())
	_, err := s.SweepOverdue(context.Background())
	assert.Error(t, err)
}

func TestSchedule_InvalidCron(t *testing.T) {
	s := New(&fakeSweeper{}, quiet())
	assert.Error(t, s.Schedule("every now and then", ""))
	assert.Error(t, s.Schedule("", "61 * * * *"))
}

func TestSchedule_StartStop(t *testing.T) {
	s := New(&fakeSweeper{}, quiet())
	require.NoError(t, s.Schedule("@every 15m", "@hourly"))
	s.Start()
	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
