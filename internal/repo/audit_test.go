package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-lending/internal/models"
)

func TestAuditRepo_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	at := time.Now()
	mock.ExpectQuery(`INSERT INTO audit_log \(subject_type, subject_id, asset_id, actor_id, action, detail, created_at\)`).
		WithArgs("loan", 100, 42, 1, "Loan", "detail", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(500))

	e := &models.AuditEntry{SubjectType: "loan", SubjectID: 100, AssetID: 42, ActorID: 1, Action: "Loan", Detail: "detail", CreatedAt: at}
	if err := NewAuditRepo(db).Append(context.Background(), e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.ID != 500 {
		t.Errorf("expected id 500, got %d", e.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_List_ActionAndRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(30 * 24 * time.Hour)
	mock.ExpectQuery(`FROM audit_log WHERE action = \$1 AND created_at >= \$2 AND created_at <= \$3 ORDER BY created_at DESC, id DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("Return", from, to, 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_type", "subject_id", "asset_id", "actor_id", "action", "detail", "created_at"}).
			AddRow(9, "loan", 100, 42, 2, "Return", "returned", from.Add(time.Hour)))

	entries, err := NewAuditRepo(db).List(context.Background(), models.AuditFilter{
		Action: "Return", From: &from, To: &to, Limit: 20, Offset: 40,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "Return" || entries[0].SubjectID != 100 {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditRepo_List_NoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM audit_log ORDER BY created_at DESC, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_type", "subject_id", "asset_id", "actor_id", "action", "detail", "created_at"}))

	entries, err := NewAuditRepo(db).List(context.Background(), models.AuditFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
