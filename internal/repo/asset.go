package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/hci-lending/internal/apperr"
	"github.com/crucial707/hci-lending/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

// AssetRepo is the asset registry: lookups plus the conditional state write the
// transaction managers serialize on.
type AssetRepo struct {
	DB DBTX
}

func NewAssetRepo(db DBTX) *AssetRepo {
	return &AssetRepo{DB: db}
}

// WithTx returns a repo bound to tx.
func (r *AssetRepo) WithTx(tx *sql.Tx) *AssetRepo {
	return &AssetRepo{DB: tx}
}

const assetColumns = `id, name, category_id, description, state, created_at, updated_at`

func scanAsset(row interface{ Scan(...any) error }) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(&a.ID, &a.Name, &a.CategoryID, &a.Description, &a.State, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ========================
// GET ASSET BY ID
// ========================

func (r *AssetRepo) Get(ctx context.Context, id int) (models.Asset, error) {
	a, err := scanAsset(r.DB.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Asset{}, apperr.ErrAssetNotFound.WithDetail("asset %d not found", id)
	}
	return a, err
}

// ========================
// LIST ASSETS BY CATEGORY
// ========================

func (r *AssetRepo) ListByCategory(ctx context.Context, categoryID int) ([]models.Asset, error) {
	return r.list(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE category_id = $1 ORDER BY name, id`, categoryID)
}

// ========================
// LIST ASSETS BY STATE
// ========================

func (r *AssetRepo) ListByState(ctx context.Context, state models.AssetState, limit, offset int) ([]models.Asset, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE state = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		state, limit, offset)
}

func (r *AssetRepo) list(ctx context.Context, query string, args ...any) ([]models.Asset, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ========================
// CONDITIONAL STATE WRITE
// ========================

// SetState moves the asset from expected to next. It succeeds only if the persisted state
// still equals expected at write time and returns ErrConflict otherwise; it never overwrites.
func (r *AssetRepo) SetState(ctx context.Context, id int, expected, next models.AssetState) error {
	if !next.Valid() {
		return fmt.Errorf("set asset state: invalid state %q", next)
	}
	return expectOneRow(r.DB.ExecContext(ctx,
		`UPDATE assets SET state = $1, updated_at = NOW() WHERE id = $2 AND state = $3`,
		next, id, expected,
	))
}

// ========================
// RECORD COUNTS
// ========================

// RecordCounts returns, for every asset, its state and the number of open loan and
// maintenance records. Used by the consistency sweep.
func (r *AssetRepo) RecordCounts(ctx context.Context) ([]models.AssetRecordCounts, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.id, a.state,
		       (SELECT COUNT(*) FROM loans l WHERE l.asset_id = a.id AND l.state = 'active'),
		       (SELECT COUNT(*) FROM maintenance_records m WHERE m.asset_id = a.id AND m.state = 'in_progress')
		FROM assets a
		ORDER BY a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssetRecordCounts
	for rows.Next() {
		var c models.AssetRecordCounts
		if err := rows.Scan(&c.AssetID, &c.State, &c.ActiveLoans, &c.OpenMaintenance); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
