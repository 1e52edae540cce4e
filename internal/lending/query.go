package lending

import (
	"context"

	"github.com/crucial707/hci-lending/internal/models"
)

// GetAsset looks up one asset under the store timeout.
func (s *Service) GetAsset(ctx context.Context, id int) (models.Asset, error) {
	var a models.Asset
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		a, err = s.assets.Get(ctx, id)
		return err
	})
	return a, err
}

func (s *Service) AssetsByCategory(ctx context.Context, categoryID int) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		assets, err = s.assets.ListByCategory(ctx, categoryID)
		return err
	})
	return assets, err
}

func (s *Service) AssetsByState(ctx context.Context, state models.AssetState, limit, offset int) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		assets, err = s.assets.ListByState(ctx, state, limit, offset)
		return err
	})
	return assets, err
}

// AuditHistory returns audit entries matching f, newest first.
func (s *Service) AuditHistory(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		entries, err = s.audit.List(ctx, f)
		return err
	})
	return entries, err
}

// ListOverdue returns active loans past their expected return at the service clock's now.
func (s *Service) ListOverdue(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		loans, err = s.loans.ListOverdue(ctx, s.now())
		return err
	})
	return loans, err
}

// ConsistencyViolations evaluates the state/record invariant for every asset and returns the
// assets that violate it.
func (s *Service) ConsistencyViolations(ctx context.Context) ([]models.AssetRecordCounts, error) {
	var counts []models.AssetRecordCounts
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		counts, err = s.assets.RecordCounts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	var bad []models.AssetRecordCounts
	for _, c := range counts {
		if !models.CheckConsistency(c) {
			bad = append(bad, c)
		}
	}
	return bad, nil
}
