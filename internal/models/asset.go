package models

import "time"

// AssetState is the lifecycle state of a physical asset. It is the single source of truth
// for whether the asset may be loaned or sent to maintenance.
type AssetState string

const (
	AssetAvailable      AssetState = "available"
	AssetLoaned         AssetState = "loaned"
	AssetInMaintenance  AssetState = "in_maintenance"
	AssetDecommissioned AssetState = "decommissioned"
)

// Valid reports whether s is one of the legal asset states.
func (s AssetState) Valid() bool {
	switch s {
	case AssetAvailable, AssetLoaned, AssetInMaintenance, AssetDecommissioned:
		return true
	}
	return false
}

type Asset struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	CategoryID  int        `json:"category_id"`
	Description string     `json:"description"`
	State       AssetState `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AssetRecordCounts is the number of open records pointing at one asset.
type AssetRecordCounts struct {
	AssetID         int        `json:"asset_id"`
	State           AssetState `json:"state"`
	ActiveLoans     int        `json:"active_loans"`
	OpenMaintenance int        `json:"open_maintenance"`
}

// CheckConsistency reports whether the asset state agrees with its open records:
// available has none, loaned has exactly one active loan, in_maintenance exactly one
// in-progress maintenance record, and no asset ever has both.
func CheckConsistency(c AssetRecordCounts) bool {
	switch c.State {
	case AssetAvailable, AssetDecommissioned:
		return c.ActiveLoans == 0 && c.OpenMaintenance == 0
	case AssetLoaned:
		return c.ActiveLoans == 1 && c.OpenMaintenance == 0
	case AssetInMaintenance:
		return c.ActiveLoans == 0 && c.OpenMaintenance == 1
	}
	return false
}
