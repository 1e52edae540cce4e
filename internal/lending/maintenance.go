package lending

import (
	"context"
	"errors"
	"fmt"

	"github.com/crucial707/hci-lending/internal/apperr"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/crucial707/hci-lending/internal/repo"
)

// StartMaintenance takes an available asset out of circulation. Same atomicity and conflict
// handling as CreateLoan.
func (s *Service) StartMaintenance(ctx context.Context, assetID int, maintenanceType string, actorID int, notes string) (models.MaintenanceRecord, error) {
	mt, ok := models.ParseMaintenanceType(maintenanceType)
	if !ok {
		err := apperr.ErrInvalidMaintenanceType.WithDetail("maintenance type %q must be preventive or corrective", maintenanceType)
		s.record(opMaintenanceStart, err)
		return models.MaintenanceRecord{}, err
	}

	var rec models.MaintenanceRecord
	err := s.inTx(ctx, func(ctx context.Context, r txRepos) error {
		asset, err := r.assets.Get(ctx, assetID)
		if err != nil {
			return err
		}
		if asset.State != models.AssetAvailable {
			return notAvailable(asset)
		}

		now := s.now()
		rec = models.MaintenanceRecord{
			AssetID:   assetID,
			ActorID:   actorID,
			Type:      mt,
			State:     models.MaintenanceInProgress,
			StartedAt: now,
			Notes:     notes,
		}
		if err := r.maintenance.Insert(ctx, &rec); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return s.lostRace(opMaintenanceStart, assetID)
			}
			return fmt.Errorf("insert maintenance: %w", err)
		}
		if err := r.assets.SetState(ctx, assetID, models.AssetAvailable, models.AssetInMaintenance); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return s.lostRace(opMaintenanceStart, assetID)
			}
			return fmt.Errorf("set asset state: %w", err)
		}
		return r.audit.Append(ctx, &models.AuditEntry{
			SubjectType: models.SubjectMaintenance,
			SubjectID:   rec.ID,
			AssetID:     assetID,
			ActorID:     actorID,
			Action:      models.ActionMaintenanceStart,
			Detail:      fmt.Sprintf("%s maintenance started on asset %d (%s)", mt, assetID, asset.Name),
			CreatedAt:   now,
		})
	})
	s.record(opMaintenanceStart, err)
	if err != nil {
		return models.MaintenanceRecord{}, err
	}
	s.log.Info("maintenance started", "maintenance_id", rec.ID, "asset_id", assetID, "type", mt, "actor_id", actorID)
	return rec, nil
}

// CompleteMaintenance closes an in-progress record and returns the asset to circulation.
// A failed in_maintenance → available write means the asset diverged from the record and is
// reported as ErrAssetStateInconsistent.
func (s *Service) CompleteMaintenance(ctx context.Context, maintenanceID, actorID int, notes string) (models.MaintenanceRecord, error) {
	var rec models.MaintenanceRecord
	err := s.inTx(ctx, func(ctx context.Context, r txRepos) error {
		var err error
		rec, err = r.maintenance.GetForUpdate(ctx, maintenanceID)
		if err != nil {
			return err
		}
		if rec.State != models.MaintenanceInProgress {
			return apperr.ErrMaintenanceNotActive.WithDetail("maintenance record %d already completed", maintenanceID)
		}

		now := s.now()
		if err := r.maintenance.MarkCompleted(ctx, maintenanceID, actorID, now, notes); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return apperr.ErrMaintenanceNotActive.WithDetail("maintenance record %d already completed", maintenanceID)
			}
			return fmt.Errorf("mark maintenance completed: %w", err)
		}
		if err := r.assets.SetState(ctx, rec.AssetID, models.AssetInMaintenance, models.AssetAvailable); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return s.inconsistent(opMaintenanceComplete, rec.AssetID, "maintenance record", maintenanceID, models.AssetInMaintenance)
			}
			return fmt.Errorf("set asset state: %w", err)
		}
		rec.State = models.MaintenanceCompleted
		rec.EndedAt = &now
		rec.CompletedBy = &actorID
		rec.CompletionNotes = notes

		detail := fmt.Sprintf("maintenance on asset %d completed", rec.AssetID)
		if notes != "" {
			detail += ": " + notes
		}
		return r.audit.Append(ctx, &models.AuditEntry{
			SubjectType: models.SubjectMaintenance,
			SubjectID:   maintenanceID,
			AssetID:     rec.AssetID,
			ActorID:     actorID,
			Action:      models.ActionMaintenanceComplete,
			Detail:      detail,
			CreatedAt:   now,
		})
	})
	s.record(opMaintenanceComplete, err)
	if err != nil {
		return models.MaintenanceRecord{}, err
	}
	s.log.Info("maintenance completed", "maintenance_id", maintenanceID, "asset_id", rec.AssetID, "actor_id", actorID)
	return rec, nil
}

// ListMaintenance returns records in state (any when empty), newest first.
func (s *Service) ListMaintenance(ctx context.Context, state models.MaintenanceState, limit, offset int) ([]models.MaintenanceRecord, error) {
	var records []models.MaintenanceRecord
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		records, err = s.maintenance.List(ctx, state, limit, offset)
		return err
	})
	return records, err
}
