package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var maintenanceCols = []string{"id", "asset_id", "actor_id", "type", "state", "started_at", "ended_at", "notes", "completed_by", "completion_notes"}

func TestMaintenanceHandler_StartMaintenance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM assets WHERE id = \$1`).WithArgs(42).
		WillReturnRows(sqlmock.NewRows(assetCols).AddRow(42, "Projector X41", 3, "", "available", fixedNow, fixedNow))
	mock.ExpectQuery(`INSERT INTO maintenance_records`).WithArgs(42, 1, "preventive", "in_progress", fixedNow, "filter").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`UPDATE assets SET state`).WithArgs("in_maintenance", 42, "available").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO audit_log`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(600))
	mock.ExpectCommit()

	h := &MaintenanceHandler{Service: newService(db)}
	req := asActor(httptest.NewRequest("POST", "/maintenance", strings.NewReader(`{"asset_id":42,"type":"preventive","notes":"filter"}`)), 1)
	rr := httptest.NewRecorder()
	h.StartMaintenance(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMaintenanceHandler_StartMaintenance_InvalidType(t *testing.T) {
	h := &MaintenanceHandler{Service: newService(nil)}
	req := asActor(httptest.NewRequest("POST", "/maintenance", strings.NewReader(`{"asset_id":42,"type":"cosmetic"}`)), 1)
	rr := httptest.NewRecorder()
	h.StartMaintenance(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rr.Code)
	}
	if code, _ := errorCode(t, rr); code != "invalid_maintenance_type" {
		t.Errorf("code: got %q", code)
	}
}

func TestMaintenanceHandler_CompleteMaintenance_AlreadyCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM maintenance_records WHERE id = \$1 FOR UPDATE`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(maintenanceCols).AddRow(7, 42, 1, "preventive", "completed", fixedNow, fixedNow, "", 3, ""))
	mock.ExpectRollback()

	h := &MaintenanceHandler{Service: newService(db)}
	req := asActor(requestWithChiURLParams("POST", "/maintenance/7/complete", []byte(`{"notes":"done"}`), map[string]string{"id": "7"}), 3)
	rr := httptest.NewRecorder()
	h.CompleteMaintenance(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rr.Code)
	}
	if code, _ := errorCode(t, rr); code != "maintenance_not_active" {
		t.Errorf("code: got %q", code)
	}
}

func TestMaintenanceHandler_ListMaintenance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM maintenance_records WHERE state = \$1`).
		WithArgs("in_progress", 50, 0).
		WillReturnRows(sqlmock.NewRows(maintenanceCols).AddRow(7, 42, 1, "preventive", "in_progress", fixedNow, nil, "", nil, ""))

	h := &MaintenanceHandler{Service: newService(db)}
	rr := httptest.NewRecorder()
	h.ListMaintenance(rr, httptest.NewRequest("GET", "/maintenance?state=in_progress", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}
