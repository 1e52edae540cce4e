package lending

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsistencyViolations(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectQuery(`FROM assets a ORDER BY a.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "state", "loans", "maintenance"}).
			AddRow(1, "available", 0, 0).
			AddRow(2, "loaned", 1, 0).
			AddRow(3, "loaned", 0, 0).
			AddRow(4, "available", 0, 1))

	bad, err := svc.ConsistencyViolations(context.Background())
	require.NoError(t, err)
	require.Len(t, bad, 2)
	assert.Equal(t, 3, bad[0].AssetID)
	assert.Equal(t, 4, bad[1].AssetID)
}

func TestListOverdue_UsesServiceClock(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectQuery(`FROM loans WHERE state = \$1 AND expected_return_at < \$2`).
		WithArgs("active", fixedNow).
		WillReturnRows(sqlmock.NewRows(loanCols).
			AddRow(3, 8, 7, 1, "active", fixedNow.Add(-240*time.Hour), fixedNow.Add(-72*time.Hour), nil))

	loans, err := svc.ListOverdue(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.True(t, loans[0].Overdue(fixedNow))
}
