package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crucial707/hci-lending/internal/apperr"
	"github.com/crucial707/hci-lending/internal/models"
)

// MaintenanceRepo persists maintenance records.
type MaintenanceRepo struct {
	DB DBTX
}

func NewMaintenanceRepo(db DBTX) *MaintenanceRepo {
	return &MaintenanceRepo{DB: db}
}

func (r *MaintenanceRepo) WithTx(tx *sql.Tx) *MaintenanceRepo {
	return &MaintenanceRepo{DB: tx}
}

const maintenanceColumns = `id, asset_id, actor_id, type, state, started_at, ended_at, notes, completed_by, completion_notes`

func scanMaintenance(row interface{ Scan(...any) error }) (models.MaintenanceRecord, error) {
	var m models.MaintenanceRecord
	var endedAt sql.NullTime
	var completedBy sql.NullInt64
	err := row.Scan(&m.ID, &m.AssetID, &m.ActorID, &m.Type, &m.State, &m.StartedAt, &endedAt, &m.Notes, &completedBy, &m.CompletionNotes)
	if endedAt.Valid {
		m.EndedAt = &endedAt.Time
	}
	if completedBy.Valid {
		id := int(completedBy.Int64)
		m.CompletedBy = &id
	}
	return m, err
}

// Insert creates the record and sets m.ID. A second in-progress record for the same asset
// returns ErrDuplicate.
func (r *MaintenanceRepo) Insert(ctx context.Context, m *models.MaintenanceRecord) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO maintenance_records (asset_id, actor_id, type, state, started_at, notes) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		m.AssetID, m.ActorID, m.Type, m.State, m.StartedAt, m.Notes,
	).Scan(&m.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MaintenanceRepo) Get(ctx context.Context, id int) (models.MaintenanceRecord, error) {
	return r.get(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_records WHERE id = $1`, id)
}

// GetForUpdate row-locks the record until the surrounding transaction ends.
func (r *MaintenanceRepo) GetForUpdate(ctx context.Context, id int) (models.MaintenanceRecord, error) {
	return r.get(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_records WHERE id = $1 FOR UPDATE`, id)
}

func (r *MaintenanceRepo) get(ctx context.Context, query string, id int) (models.MaintenanceRecord, error) {
	m, err := scanMaintenance(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.MaintenanceRecord{}, apperr.ErrMaintenanceNotFound.WithDetail("maintenance record %d not found", id)
	}
	return m, err
}

// MarkCompleted closes an in-progress record. Returns ErrConflict if it is already completed.
func (r *MaintenanceRepo) MarkCompleted(ctx context.Context, id, actorID int, at time.Time, notes string) error {
	return expectOneRow(r.DB.ExecContext(ctx,
		`UPDATE maintenance_records SET state = $1, ended_at = $2, completed_by = $3, completion_notes = $4 WHERE id = $5 AND state = $6`,
		models.MaintenanceCompleted, at, actorID, notes, id, models.MaintenanceInProgress,
	))
}

// List returns records in the given state (any state when empty), newest first.
func (r *MaintenanceRepo) List(ctx context.Context, state models.MaintenanceState, limit, offset int) ([]models.MaintenanceRecord, error) {
	limit, offset = clampPage(limit, offset)
	var rows *sql.Rows
	var err error
	if state != "" {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+maintenanceColumns+` FROM maintenance_records WHERE state = $1 ORDER BY started_at DESC, id DESC LIMIT $2 OFFSET $3`,
			state, limit, offset)
	} else {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+maintenanceColumns+` FROM maintenance_records ORDER BY started_at DESC, id DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.MaintenanceRecord{}
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}
