package models

import "time"

type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
)

// ParseMaintenanceType accepts the lower-case wire names and their capitalised display forms.
func ParseMaintenanceType(s string) (MaintenanceType, bool) {
	switch s {
	case "preventive", "Preventive":
		return MaintenancePreventive, true
	case "corrective", "Corrective":
		return MaintenanceCorrective, true
	}
	return "", false
}

type MaintenanceState string

const (
	MaintenanceInProgress MaintenanceState = "in_progress"
	MaintenanceCompleted  MaintenanceState = "completed"
)

type MaintenanceRecord struct {
	ID              int              `json:"id"`
	AssetID         int              `json:"asset_id"`
	ActorID         int              `json:"actor_id"`
	Type            MaintenanceType  `json:"type"`
	State           MaintenanceState `json:"state"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         *time.Time       `json:"ended_at,omitempty"`
	Notes           string           `json:"notes"`
	CompletedBy     *int             `json:"completed_by,omitempty"`
	CompletionNotes string           `json:"completion_notes,omitempty"`
}
