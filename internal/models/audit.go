package models

import "time"

// Audit actions written by the transaction managers.
const (
	ActionLoan                = "Loan"
	ActionReturn              = "Return"
	ActionMaintenanceStart    = "MaintenanceStart"
	ActionMaintenanceComplete = "MaintenanceComplete"
)

// Audit subject types.
const (
	SubjectLoan        = "loan"
	SubjectMaintenance = "maintenance"
)

// AuditEntry represents one append-only audit log row.
type AuditEntry struct {
	ID          int       `json:"id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   int       `json:"subject_id"`
	AssetID     int       `json:"asset_id"`
	ActorID     int       `json:"actor_id"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditFilter narrows an audit history query. Zero values mean "any".
type AuditFilter struct {
	Action      string
	SubjectType string
	AssetID     int
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
