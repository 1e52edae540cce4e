package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/models"
)

// AuditHandler serves the transition history.
type AuditHandler struct {
	Service *lending.Service
}

// ListAudit returns audit entries newest first. Query: action, subject_type, asset_id,
// from, to (RFC 3339 or YYYY-MM-DD; a bare "to" date includes the whole day), limit, offset.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.AuditFilter{
		Action:      q.Get("action"),
		SubjectType: q.Get("subject_type"),
	}
	if f.SubjectType != "" && f.SubjectType != models.SubjectLoan && f.SubjectType != models.SubjectMaintenance {
		JSONError(w, "invalid subject_type", "invalid_request", http.StatusBadRequest)
		return
	}
	var err error
	if f.AssetID, err = queryInt(r, "asset_id"); err != nil {
		JSONError(w, "invalid asset_id", "invalid_request", http.StatusBadRequest)
		return
	}
	if v := q.Get("from"); v != "" {
		t, _, err := parseTime(v)
		if err != nil {
			JSONError(w, "invalid from", "invalid_request", http.StatusBadRequest)
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, dateOnly, err := parseTime(v)
		if err != nil {
			JSONError(w, "invalid to", "invalid_request", http.StatusBadRequest)
			return
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		JSONError(w, "to is before from", "invalid_request", http.StatusBadRequest)
		return
	}
	var ok bool
	if f.Limit, f.Offset, ok = page(w, r); !ok {
		return
	}

	entries, err := h.Service.AuditHistory(r.Context(), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func parseTime(v string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err = time.Parse(time.DateOnly, v)
	return t, true, err
}
