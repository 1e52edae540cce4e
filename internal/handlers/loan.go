package handlers

import (
	"net/http"

	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/crucial707/hci-lending/internal/repo"
)

type LoanHandler struct {
	Service *lending.Service
}

// ==========================
// Create Loan
// ==========================

func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	var input struct {
		AssetID    int `json:"asset_id" validate:"required,gt=0"`
		BorrowerID int `json:"borrower_id" validate:"required,gt=0"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	loan, err := h.Service.CreateLoan(r.Context(), input.AssetID, input.BorrowerID, actor)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// ==========================
// Register Return
// ==========================

func (h *LoanHandler) RegisterReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input struct {
		Notes string `json:"notes" validate:"max=1000"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	ret, err := h.Service.RegisterReturn(r.Context(), loanID, actor, input.Notes)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

// ==========================
// Get / List Loans
// ==========================

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	loan, err := h.Service.GetLoan(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// ListLoans supports ?state=active|returned, ?borrower_id=, ?asset_id=, ?limit=, ?offset=.
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	f := repo.LoanFilter{State: models.LoanState(r.URL.Query().Get("state"))}
	if f.State != "" && f.State != models.LoanActive && f.State != models.LoanReturned {
		JSONError(w, "invalid state", "invalid_request", http.StatusBadRequest)
		return
	}
	var err error
	if f.BorrowerID, err = queryInt(r, "borrower_id"); err != nil {
		JSONError(w, "invalid borrower_id", "invalid_request", http.StatusBadRequest)
		return
	}
	if f.AssetID, err = queryInt(r, "asset_id"); err != nil {
		JSONError(w, "invalid asset_id", "invalid_request", http.StatusBadRequest)
		return
	}
	var ok bool
	if f.Limit, f.Offset, ok = page(w, r); !ok {
		return
	}

	loans, err := h.Service.ListLoans(r.Context(), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}
