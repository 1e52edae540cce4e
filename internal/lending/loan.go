package lending

import (
	"context"
	"errors"
	"fmt"

	"github.com/crucial707/hci-lending/internal/apperr"
	"github.com/crucial707/hci-lending/internal/metrics"
	"github.com/crucial707/hci-lending/internal/models"
	"github.com/crucial707/hci-lending/internal/repo"
)

// CreateLoan lends an available asset to borrowerID on behalf of actorID. The loan row, the
// available → loaned state write and the "Loan" audit entry commit together or not at all.
// A lost race surfaces as ErrAssetNotAvailable and is never retried here.
func (s *Service) CreateLoan(ctx context.Context, assetID, borrowerID, actorID int) (models.Loan, error) {
	var loan models.Loan
	err := s.inTx(ctx, func(ctx context.Context, r txRepos) error {
		asset, err := r.assets.Get(ctx, assetID)
		if err != nil {
			return err
		}
		borrower, err := r.users.GetByID(ctx, borrowerID)
		if errors.Is(err, repo.ErrUserNotFound) {
			return apperr.ErrBorrowerNotFound.WithDetail("borrower %d not found", borrowerID)
		}
		if err != nil {
			return err
		}
		if asset.State != models.AssetAvailable {
			return notAvailable(asset)
		}

		now := s.now()
		loan = models.Loan{
			AssetID:          assetID,
			BorrowerID:       borrowerID,
			ActorID:          actorID,
			State:            models.LoanActive,
			LoanedAt:         now,
			ExpectedReturnAt: now.Add(s.loanPeriod),
		}
		if err := r.loans.Insert(ctx, &loan); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return s.lostRace(opLoan, assetID)
			}
			return fmt.Errorf("insert loan: %w", err)
		}
		if err := r.assets.SetState(ctx, assetID, models.AssetAvailable, models.AssetLoaned); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return s.lostRace(opLoan, assetID)
			}
			return fmt.Errorf("set asset state: %w", err)
		}
		return r.audit.Append(ctx, &models.AuditEntry{
			SubjectType: models.SubjectLoan,
			SubjectID:   loan.ID,
			AssetID:     assetID,
			ActorID:     actorID,
			Action:      models.ActionLoan,
			Detail: fmt.Sprintf("asset %d (%s) loaned to %s (user %d), due %s",
				assetID, asset.Name, borrower.FullName, borrowerID, loan.ExpectedReturnAt.Format("2006-01-02")),
			CreatedAt: now,
		})
	})
	s.record(opLoan, err)
	if err != nil {
		return models.Loan{}, err
	}
	s.log.Info("loan created", "loan_id", loan.ID, "asset_id", assetID, "borrower_id", borrowerID, "actor_id", actorID)
	return loan, nil
}

// RegisterReturn closes an active loan. The return row, the loan update, the loaned → available
// state write and the "Return" audit entry commit together. If the asset is not loaned at write
// time its state has diverged from the loan and ErrAssetStateInconsistent is returned.
func (s *Service) RegisterReturn(ctx context.Context, loanID, actorID int, notes string) (models.Return, error) {
	if notes == "" {
		notes = DefaultReturnNotes
	}
	var ret models.Return
	var assetID int
	err := s.inTx(ctx, func(ctx context.Context, r txRepos) error {
		loan, err := r.loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.State != models.LoanActive {
			return apperr.ErrLoanNotActive.WithDetail("loan %d already returned", loanID)
		}
		assetID = loan.AssetID

		now := s.now()
		ret = models.Return{LoanID: loanID, ActorID: actorID, ReturnedAt: now, Notes: notes}
		if err := r.loans.InsertReturn(ctx, &ret); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return apperr.ErrLoanNotActive.WithDetail("loan %d already returned", loanID)
			}
			return fmt.Errorf("insert return: %w", err)
		}
		if err := r.loans.MarkReturned(ctx, loanID, now); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return apperr.ErrLoanNotActive.WithDetail("loan %d already returned", loanID)
			}
			return fmt.Errorf("mark loan returned: %w", err)
		}
		if err := r.assets.SetState(ctx, loan.AssetID, models.AssetLoaned, models.AssetAvailable); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return s.inconsistent(opReturn, loan.AssetID, "loan", loanID, models.AssetLoaned)
			}
			return fmt.Errorf("set asset state: %w", err)
		}
		return r.audit.Append(ctx, &models.AuditEntry{
			SubjectType: models.SubjectLoan,
			SubjectID:   loanID,
			AssetID:     loan.AssetID,
			ActorID:     actorID,
			Action:      models.ActionReturn,
			Detail:      fmt.Sprintf("asset %d returned by user %d: %s", loan.AssetID, loan.BorrowerID, notes),
			CreatedAt:   now,
		})
	})
	s.record(opReturn, err)
	if err != nil {
		return models.Return{}, err
	}
	s.log.Info("loan returned", "loan_id", loanID, "asset_id", assetID, "actor_id", actorID)
	return ret, nil
}

// ListLoans returns loans matching f, newest first.
func (s *Service) ListLoans(ctx context.Context, f repo.LoanFilter) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		loans, err = s.loans.List(ctx, f)
		return err
	})
	return loans, err
}

// GetLoan returns one loan.
func (s *Service) GetLoan(ctx context.Context, id int) (models.Loan, error) {
	var loan models.Loan
	err := s.withTimeout(ctx, func(ctx context.Context) (err error) {
		loan, err = s.loans.Get(ctx, id)
		return err
	})
	return loan, err
}

func notAvailable(a models.Asset) error {
	return apperr.ErrAssetNotAvailable.WithDetail("asset %d is not available (current state: %s)", a.ID, a.State)
}

// lostRace reports a conditional write or unique index that another transaction got to first.
func (s *Service) lostRace(op string, assetID int) error {
	metrics.IncStateConflict(op)
	s.log.Warn("asset state conflict", "operation", op, "asset_id", assetID)
	return apperr.ErrAssetNotAvailable.WithDetail("asset %d is no longer available", assetID)
}

func (s *Service) inconsistent(op string, assetID int, subject string, subjectID int, expected models.AssetState) error {
	metrics.IncInconsistency(op)
	s.log.Error("asset state inconsistent",
		"operation", op, "asset_id", assetID, "subject", subject, "subject_id", subjectID, "expected_state", expected)
	return apperr.ErrAssetStateInconsistent.WithDetail(
		"asset %d is not %s although %s %d is open; operator investigation required", assetID, expected, subject, subjectID)
}

func (s *Service) record(op string, err error) {
	if err == nil {
		metrics.RecordTransition(op, "ok")
		return
	}
	metrics.RecordTransition(op, apperr.CodeOf(err))
}
