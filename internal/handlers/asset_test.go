package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/middleware"
	"github.com/go-chi/chi/v5"
)

var assetCols = []string{"id", "name", "category_id", "description", "state", "created_at", "updated_at"}

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

// asActor authenticates r as the given staff member.
func asActor(r *http.Request, id int) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), middleware.Actor{ID: id, Role: "staff"}))
}

func newService(db *sql.DB) *lending.Service {
	return lending.NewService(db, lending.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return fixedNow },
	})
}

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code, body.Error
}

func TestAssetHandler_GetAsset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM assets WHERE id = \$1`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(assetCols).AddRow(42, "Projector X41", 3, "Room 12", "available", fixedNow, fixedNow))

	h := &AssetHandler{Service: newService(db)}
	req := requestWithChiURLParams("GET", "/assets/42", nil, map[string]string{"id": "42"})
	rr := httptest.NewRecorder()
	h.GetAsset(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GetAsset status: got %d, want 200", rr.Code)
	}
	var got struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 42 || got.State != "available" {
		t.Errorf("unexpected asset: %+v", got)
	}
}

func TestAssetHandler_GetAsset_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM assets WHERE id = \$1`).WithArgs(999).WillReturnError(sql.ErrNoRows)

	h := &AssetHandler{Service: newService(db)}
	req := requestWithChiURLParams("GET", "/assets/999", nil, map[string]string{"id": "999"})
	rr := httptest.NewRecorder()
	h.GetAsset(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	code, msg := errorCode(t, rr)
	if code != "asset_not_found" || msg != "asset 999 not found" {
		t.Errorf("unexpected error body: %q %q", code, msg)
	}
}

func TestAssetHandler_GetAsset_InvalidID(t *testing.T) {
	h := &AssetHandler{}
	req := requestWithChiURLParams("GET", "/assets/abc", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.GetAsset(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestAssetHandler_ListAssets_DefaultsToAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM assets WHERE state = \$1 ORDER BY id LIMIT \$2 OFFSET \$3`).
		WithArgs("available", 50, 0).
		WillReturnRows(sqlmock.NewRows(assetCols).AddRow(1, "Tablet 01", 2, "", "available", fixedNow, fixedNow))

	h := &AssetHandler{Service: newService(db)}
	rr := httptest.NewRecorder()
	h.ListAssets(rr, httptest.NewRequest("GET", "/assets", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAssetHandler_ListAssets_InvalidState(t *testing.T) {
	h := &AssetHandler{}
	rr := httptest.NewRecorder()
	h.ListAssets(rr, httptest.NewRequest("GET", "/assets?state=lost", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestAssetHandler_ListByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM assets WHERE category_id = \$1 ORDER BY name, id`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(assetCols))

	h := &AssetHandler{Service: newService(db)}
	req := requestWithChiURLParams("GET", "/categories/3/assets", nil, map[string]string{"id": "3"})
	rr := httptest.NewRecorder()
	h.ListByCategory(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if body := bytes.TrimSpace(rr.Body.Bytes()); string(body) != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}
