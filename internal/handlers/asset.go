package handlers

import (
	"net/http"

	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/models"
)

type AssetHandler struct {
	Service *lending.Service
}

// ==========================
// Get Asset
// ==========================

func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	asset, err := h.Service.GetAsset(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// ==========================
// List Assets (by state)
// ==========================

// ListAssets lists assets in ?state=, available when omitted (maintenance and loan pickers).
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	state := models.AssetState(r.URL.Query().Get("state"))
	if state == "" {
		state = models.AssetAvailable
	}
	if !state.Valid() {
		JSONError(w, "invalid state", "invalid_request", http.StatusBadRequest)
		return
	}
	limit, offset, ok := page(w, r)
	if !ok {
		return
	}
	assets, err := h.Service.AssetsByState(r.Context(), state, limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

// ==========================
// List Assets By Category
// ==========================

func (h *AssetHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	assets, err := h.Service.AssetsByCategory(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}
