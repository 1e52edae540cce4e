package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/crucial707/hci-lending/internal/models"
)

// AuditRepo persists the append-only audit log. It has no update or delete methods.
type AuditRepo struct {
	db DBTX
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) WithTx(tx *sql.Tx) *AuditRepo {
	return &AuditRepo{db: tx}
}

// Append records one transition and sets e.ID.
func (r *AuditRepo) Append(ctx context.Context, e *models.AuditEntry) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO audit_log (subject_type, subject_id, asset_id, actor_id, action, detail, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		e.SubjectType, e.SubjectID, e.AssetID, e.ActorID, e.Action, e.Detail, e.CreatedAt,
	).Scan(&e.ID)
}

// List returns audit entries matching f, newest first.
func (r *AuditRepo) List(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.SubjectType != "" {
		add("subject_type = $%d", f.SubjectType)
	}
	if f.AssetID > 0 {
		add("asset_id = $%d", f.AssetID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	limit, offset := clampPage(f.Limit, f.Offset)
	args = append(args, limit, offset)

	query := `SELECT id, subject_type, subject_id, asset_id, actor_id, action, detail, created_at FROM audit_log`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.SubjectType, &e.SubjectID, &e.AssetID, &e.ActorID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
