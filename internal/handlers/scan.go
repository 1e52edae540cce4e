package handlers

import (
	"net/http"
	"strconv"

	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/metrics"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/crucial707/hci-lending/internal/qrid"
)

// ScanHandler resolves scanned payloads for clients that decode on the device and only need
// the identifier validated and looked up.
type ScanHandler struct {
	Service *lending.Service
	Schemes []string
}

type resolveResponse struct {
	Identifier string       `json:"identifier"`
	Asset      models.Asset `json:"asset"`
}

// Resolve validates the payload and looks up the asset. An invalid payload is answered with
// 422 before any lookup.
func (h *ScanHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Payload string `json:"payload" validate:"required,max=2048"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	var opts []qrid.Option
	if len(h.Schemes) > 0 {
		opts = append(opts, qrid.WithSchemes(h.Schemes...))
	}
	assetID, err := qrid.ParseAssetID(input.Payload, opts...)
	if err != nil {
		metrics.IncScanEvent("rejected")
		WriteError(w, r, err)
		return
	}

	asset, err := h.Service.GetAsset(r.Context(), assetID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	metrics.IncScanEvent("resolved")
	writeJSON(w, http.StatusOK, resolveResponse{Identifier: strconv.Itoa(assetID), Asset: asset})
}
