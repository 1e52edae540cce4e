package handlers

import (
	"net/http"

	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/models"
)

type MaintenanceHandler struct {
	Service *lending.Service
}

// ==========================
// Start Maintenance
// ==========================

func (h *MaintenanceHandler) StartMaintenance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	// type is checked by the service so an unknown value gets invalid_maintenance_type.
	var input struct {
		AssetID int    `json:"asset_id" validate:"required,gt=0"`
		Type    string `json:"type" validate:"required"`
		Notes   string `json:"notes" validate:"max=1000"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	rec, err := h.Service.StartMaintenance(r.Context(), input.AssetID, input.Type, actor, input.Notes)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ==========================
// Complete Maintenance
// ==========================

func (h *MaintenanceHandler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input struct {
		Notes string `json:"notes" validate:"max=1000"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	rec, err := h.Service.CompleteMaintenance(r.Context(), id, actor, input.Notes)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ==========================
// List Maintenance
// ==========================

func (h *MaintenanceHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	state := models.MaintenanceState(r.URL.Query().Get("state"))
	if state != "" && state != models.MaintenanceInProgress && state != models.MaintenanceCompleted {
		JSONError(w, "invalid state", "invalid_request", http.StatusBadRequest)
		return
	}
	limit, offset, ok := page(w, r)
	if !ok {
		return
	}
	records, err := h.Service.ListMaintenance(r.Context(), state, limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
