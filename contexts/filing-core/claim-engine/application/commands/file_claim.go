package commands

import (
	"context"
	"log/slog"
	"time"

	application "recoup/contexts/filing-core/claim-engine/application"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	"recoup/contexts/filing-core/claim-engine/ports"
)

const (
	defaultMaxRetries   = 3
	defaultCallAttempts = 3
	callBackoffBase     = time.Second
)

type FileClaimResult struct {
	Filed                bool
	ExternalCaseID       string
	ExternalSubmissionID string
	FailureReason        string
}

// FileClaimUseCase performs one filing attempt against the marketplace and
// records the outcome. The external call is retried at the call level with
// exponential backoff; that is independent of the business-level
// retry-with-stronger-evidence cycle tracked in Claim.RetryCount.
type FileClaimUseCase struct {
	Claims       ports.ClaimRepository
	Submissions  ports.SubmissionRepository
	Filing       ports.FilingClient
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Outbox       ports.OutboxWriter
	MaxRetries   int
	CallAttempts int
	Logger       *slog.Logger
}

func (uc FileClaimUseCase) Execute(ctx context.Context, claim entities.Claim) (entities.Claim, FileClaimResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !claim.CanFile() {
		return claim, FileClaimResult{}, domainerrors.ErrClaimNotFileable
	}

	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}

	receipt, callErr := uc.submitWithBackoff(ctx, claim)
	if callErr != nil {
		updated, err := uc.recordFailure(ctx, claim, now, callErr)
		if err != nil {
			return claim, FileClaimResult{}, err
		}
		return updated, FileClaimResult{FailureReason: callErr.Error()}, nil
	}

	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return claim, FileClaimResult{}, err
	}
	submission := entities.Submission{
		SubmissionID:         submissionID,
		ClaimID:              claim.ClaimID,
		ExternalCaseID:       receipt.ExternalCaseID,
		ExternalSubmissionID: receipt.ExternalSubmissionID,
		Status:               entities.SubmissionStatusOpen,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := uc.Submissions.CreateSubmission(ctx, submission); err != nil {
		return claim, FileClaimResult{}, err
	}

	previousStatus := claim.Status
	previousFiling := claim.FilingStatus
	claim.FilingStatus = entities.FilingStatusFiled
	claim.Status = entities.ClaimStatusAutoSubmitted
	claim.UpdatedAt = now
	if err := uc.Claims.UpdateClaim(ctx, claim); err != nil {
		return claim, FileClaimResult{}, err
	}
	if err := uc.audit(ctx, claim, previousStatus, previousFiling, "auto_filed", receipt.ExternalCaseID, now); err != nil {
		return claim, FileClaimResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return claim, FileClaimResult{}, err
		}
		envelope, err := NewClaimEnvelope(eventID, EventClaimFiled, claim.ClaimID, now, map[string]any{
			"claim_id":               claim.ClaimID,
			"tenant_id":              claim.TenantID,
			"seller_id":              claim.SellerID,
			"order_id":               claim.OrderID,
			"amount":                 claim.Amount,
			"currency":               claim.Currency,
			"external_case_id":       receipt.ExternalCaseID,
			"external_submission_id": receipt.ExternalSubmissionID,
		})
		if err != nil {
			return claim, FileClaimResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return claim, FileClaimResult{}, err
		}
	}

	logger.Info("claim filed",
		"event", "claim_filed",
		"module", "filing-core/claim-engine",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"tenant_id", claim.TenantID,
		"seller_id", claim.SellerID,
		"external_case_id", receipt.ExternalCaseID,
	)
	return claim, FileClaimResult{
		Filed:                true,
		ExternalCaseID:       receipt.ExternalCaseID,
		ExternalSubmissionID: receipt.ExternalSubmissionID,
	}, nil
}

// submitWithBackoff bounds transient marketplace failures: up to CallAttempts
// tries, doubling the wait each time.
func (uc FileClaimUseCase) submitWithBackoff(ctx context.Context, claim entities.Claim) (ports.FilingReceipt, error) {
	attempts := uc.CallAttempts
	if attempts <= 0 {
		attempts = defaultCallAttempts
	}
	descriptor := ports.ClaimDescriptor{
		ClaimID:     claim.ClaimID,
		TenantID:    claim.TenantID,
		SellerID:    claim.SellerID,
		OrderID:     claim.OrderID,
		ASIN:        claim.ASIN,
		SKU:         claim.SKU,
		ClaimType:   claim.ClaimType,
		Amount:      claim.Amount,
		Currency:    claim.Currency,
		EvidenceIDs: append([]string(nil), claim.EvidenceIDs...),
	}

	var lastErr error
	backoff := callBackoffBase
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ports.FilingReceipt{}, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
		receipt, err := uc.Filing.Submit(ctx, descriptor)
		if err == nil {
			return receipt, nil
		}
		lastErr = err
	}
	return ports.FilingReceipt{}, lastErr
}

func (uc FileClaimUseCase) recordFailure(ctx context.Context, claim entities.Claim, now time.Time, cause error) (entities.Claim, error) {
	logger := application.ResolveLogger(uc.Logger)
	maxRetries := uc.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	previousStatus := claim.Status
	previousFiling := claim.FilingStatus
	claim.RetryCount++
	if claim.RetryCount < maxRetries {
		claim.FilingStatus = entities.FilingStatusRetrying
	} else {
		claim.FilingStatus = entities.FilingStatusFailed
	}
	claim.UpdatedAt = now
	if err := uc.Claims.UpdateClaim(ctx, claim); err != nil {
		return claim, err
	}
	if err := uc.audit(ctx, claim, previousStatus, previousFiling, "filing_failed", cause.Error(), now); err != nil {
		return claim, err
	}

	logger.Error("claim filing failed",
		"event", "claim_filing_failed",
		"module", "filing-core/claim-engine",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"tenant_id", claim.TenantID,
		"retry_count", claim.RetryCount,
		"filing_status", string(claim.FilingStatus),
		"error", cause.Error(),
	)
	return claim, nil
}

func (uc FileClaimUseCase) audit(
	ctx context.Context,
	claim entities.Claim,
	oldStatus entities.ClaimStatus,
	oldFiling entities.FilingStatus,
	action string,
	notes string,
	now time.Time,
) error {
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return uc.Claims.AddAudit(ctx, entities.ClaimAudit{
		AuditID:         auditID,
		ClaimID:         claim.ClaimID,
		Action:          action,
		OldStatus:       oldStatus,
		NewStatus:       claim.Status,
		OldFilingStatus: oldFiling,
		NewFilingStatus: claim.FilingStatus,
		ReasonCode:      action,
		ReasonNotes:     notes,
		CreatedAt:       now,
	})
}
