package lending

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-lending/internal/apperr"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMaintenance_AvailableAsset(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	expectAsset(mock, 42, models.AssetAvailable)
	mock.ExpectQuery(`INSERT INTO maintenance_records`).
		WithArgs(42, 1, "corrective", "in_progress", fixedNow, "lamp flickers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`UPDATE assets SET state`).
		WithArgs("in_maintenance", 42, "available").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO audit_log`).
		WithArgs("maintenance", 7, 42, 1, "MaintenanceStart", sqlmock.AnyArg(), fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(600))
	mock.ExpectCommit()

	rec, err := svc.StartMaintenance(context.Background(), 42, "Corrective", 1, "lamp flickers")
	require.NoError(t, err)
	assert.Equal(t, 7, rec.ID)
	assert.Equal(t, models.MaintenanceCorrective, rec.Type)
	assert.Equal(t, models.MaintenanceInProgress, rec.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartMaintenance_InvalidType(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	_, err := svc.StartMaintenance(context.Background(), 42, "cosmetic", 1, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidMaintenanceType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartMaintenance_AssetLoaned(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	expectAsset(mock, 42, models.AssetLoaned)
	mock.ExpectRollback()

	_, err := svc.StartMaintenance(context.Background(), 42, "preventive", 1, "")
	assert.ErrorIs(t, err, apperr.ErrAssetNotAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartMaintenance_LostRace(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	expectAsset(mock, 42, models.AssetAvailable)
	mock.ExpectQuery(`INSERT INTO maintenance_records`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`UPDATE assets SET state`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.StartMaintenance(context.Background(), 42, "preventive", 1, "")
	assert.ErrorIs(t, err, apperr.ErrAssetNotAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectOpenMaintenance(mock sqlmock.Sqlmock, id, assetID int) {
	mock.ExpectQuery(`FROM maintenance_records WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(maintCols).
			AddRow(id, assetID, 1, "preventive", "in_progress", fixedNow.Add(-48*time.Hour), nil, "", nil, ""))
}

func TestCompleteMaintenance_InProgress(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	expectOpenMaintenance(mock, 7, 42)
	mock.ExpectExec(`UPDATE maintenance_records SET state`).
		WithArgs("completed", fixedNow, 3, "cleaned", 7, "in_progress").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE assets SET state`).
		WithArgs("available", 42, "in_maintenance").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO audit_log`).
		WithArgs("maintenance", 7, 42, 3, "MaintenanceComplete", sqlmock.AnyArg(), fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(601))
	mock.ExpectCommit()

	rec, err := svc.CompleteMaintenance(context.Background(), 7, 3, "cleaned")
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCompleted, rec.State)
	require.NotNil(t, rec.EndedAt)
	assert.Equal(t, fixedNow, *rec.EndedAt)
	require.NotNil(t, rec.CompletedBy)
	assert.Equal(t, 3, *rec.CompletedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteMaintenance_AlreadyCompleted(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM maintenance_records WHERE id = \$1 FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(maintCols).AddRow(7, 42, 1, "preventive", "completed", fixedNow, fixedNow, "", 3, ""))
	mock.ExpectRollback()

	_, err := svc.CompleteMaintenance(context.Background(), 7, 3, "")
	assert.ErrorIs(t, err, apperr.ErrMaintenanceNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteMaintenance_NotFound(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM maintenance_records WHERE id = \$1 FOR UPDATE`).WithArgs(9).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CompleteMaintenance(context.Background(), 9, 3, "")
	assert.ErrorIs(t, err, apperr.ErrMaintenanceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteMaintenance_AssetStateInconsistent(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	expectOpenMaintenance(mock, 7, 42)
	mock.ExpectExec(`UPDATE maintenance_records SET state`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE assets SET state`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CompleteMaintenance(context.Background(), 7, 3, "")
	assert.ErrorIs(t, err, apperr.ErrAssetStateInconsistent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
