package models

import "time"

type LoanState string

const (
	LoanActive   LoanState = "active"
	LoanReturned LoanState = "returned"
)

// Loan is created by the loan transaction and only mutated by the return transaction.
type Loan struct {
	ID               int        `json:"id"`
	AssetID          int        `json:"asset_id"`
	BorrowerID       int        `json:"borrower_id"`
	ActorID          int        `json:"actor_id"`
	State            LoanState  `json:"state"`
	LoanedAt         time.Time  `json:"loaned_at"`
	ExpectedReturnAt time.Time  `json:"expected_return_at"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty"`
}

// Overdue reports whether an active loan is past its expected return at now.
func (l Loan) Overdue(now time.Time) bool {
	return l.State == LoanActive && now.After(l.ExpectedReturnAt)
}

// Return is written once per loan, when the asset comes back.
type Return struct {
	ID         int       `json:"id"`
	LoanID     int       `json:"loan_id"`
	ActorID    int       `json:"actor_id"`
	ReturnedAt time.Time `json:"returned_at"`
	Notes      string    `json:"notes"`
}
