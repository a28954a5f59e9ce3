package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "recoup/contexts/filing-core/claim-engine/application"
	"recoup/contexts/filing-core/claim-engine/application/classify"
	"recoup/contexts/filing-core/claim-engine/application/commands"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	"recoup/contexts/filing-core/claim-engine/ports"
)

// StatusPollJob re-queries marketplace case status for filed, non-terminal
// claims and drives the post-submission state machine: the fixed status map,
// the pending-action sub-state, and classifier-routed denial handling.
type StatusPollJob struct {
	Claims      ports.ClaimRepository
	Submissions ports.SubmissionRepository
	Filing      ports.FilingClient
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Outbox      ports.OutboxWriter
	Pacer       ports.Pacer
	BatchSize   int
	MaxRetries  int
	Logger      *slog.Logger
}

func (j StatusPollJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	claims, err := j.Claims.ListFiledClaims(ctx, limit)
	if err != nil {
		logger.Error("status poll list failed",
			"event", "status_poll_list_failed",
			"module", "filing-core/claim-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	polled := 0
	for _, claim := range claims {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := j.pollClaim(ctx, claim); err != nil {
			logger.Error("claim status poll failed",
				"event", "status_poll_claim_failed",
				"module", "filing-core/claim-engine",
				"layer", "worker",
				"claim_id", claim.ClaimID,
				"error", err.Error(),
			)
			continue
		}
		polled++
		if j.Pacer != nil {
			if err := j.Pacer.AcquireSlot(ctx); err != nil {
				return err
			}
		}
	}

	if polled > 0 {
		logger.Info("status poll cycle completed",
			"event", "status_poll_completed",
			"module", "filing-core/claim-engine",
			"layer", "worker",
			"polled", polled,
		)
	}
	return nil
}

func (j StatusPollJob) pollClaim(ctx context.Context, claim entities.Claim) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("claim %s poll panicked: %v", claim.ClaimID, recovered)
		}
	}()

	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	submission, err := j.Submissions.GetLatestSubmission(ctx, claim.ClaimID)
	if err != nil {
		return err
	}
	caseStatus, err := j.Filing.GetStatus(ctx, submission.ExternalSubmissionID)
	if err != nil {
		return err
	}

	submission.Status = caseStatus.Status
	submission.ResolutionText = caseStatus.ResolutionText
	submission.ApprovedAmount = caseStatus.ApprovedAmount
	submission.UpdatedAt = now
	if err := j.Submissions.UpdateSubmission(ctx, submission); err != nil {
		return err
	}

	switch caseStatus.Status {
	case entities.SubmissionStatusOpen:
		return nil
	case entities.SubmissionStatusInProgress:
		if classify.IsInformationRequest(caseStatus.ResolutionText) {
			return j.handleInformationRequest(ctx, claim, caseStatus, now)
		}
		return nil
	case entities.SubmissionStatusApproved:
		return j.handleApproved(ctx, claim, caseStatus, now)
	case entities.SubmissionStatusDenied:
		return j.handleDenied(ctx, claim, caseStatus, now)
	case entities.SubmissionStatusClosed:
		return j.transition(ctx, claim, entities.ClaimStatusClosed, claim.FilingStatus, "case_closed", caseStatus.ResolutionText, now)
	default:
		return nil
	}
}

// handleInformationRequest covers the pending-action sub-state: the case is
// still in progress but the marketplace wants more material. Notify the user
// and queue a stronger-evidence retry without waiting for a denial.
func (j StatusPollJob) handleInformationRequest(ctx context.Context, claim entities.Claim, caseStatus ports.CaseStatus, now time.Time) error {
	logger := application.ResolveLogger(j.Logger)

	if err := j.emit(ctx, commands.EventClaimActionRequired, claim, now, map[string]any{
		"claim_id":        claim.ClaimID,
		"tenant_id":       claim.TenantID,
		"seller_id":       claim.SellerID,
		"resolution_text": caseStatus.ResolutionText,
		"reason":          "marketplace requested additional documentation",
	}); err != nil {
		return err
	}

	previousStatus := claim.Status
	previousFiling := claim.FilingStatus
	claim.RetryCount++
	if claim.RetryCount < j.maxRetries() {
		claim.FilingStatus = entities.FilingStatusRetrying
	} else {
		// Out of retries: close the claim out the same way an exhausted
		// denial does, so it leaves the polled population for good.
		claim.Status = entities.ClaimStatusRejected
		claim.FilingStatus = entities.FilingStatusFailed
	}
	claim.UpdatedAt = now
	if err := j.Claims.UpdateClaim(ctx, claim); err != nil {
		return err
	}
	if err := j.audit(ctx, claim, previousStatus, previousFiling, "information_requested", caseStatus.ResolutionText, now); err != nil {
		return err
	}

	logger.Info("claim queued for stronger-evidence retry",
		"event", "claim_information_requested",
		"module", "filing-core/claim-engine",
		"layer", "worker",
		"claim_id", claim.ClaimID,
		"retry_count", claim.RetryCount,
	)
	return nil
}

func (j StatusPollJob) handleApproved(ctx context.Context, claim entities.Claim, caseStatus ports.CaseStatus, now time.Time) error {
	if err := j.transition(ctx, claim, entities.ClaimStatusApproved, claim.FilingStatus, "case_approved", caseStatus.ResolutionText, now); err != nil {
		return err
	}
	// Recovery detection is an event consumer, never a synchronous call.
	return j.emit(ctx, commands.EventClaimApproved, claim, now, map[string]any{
		"claim_id":        claim.ClaimID,
		"tenant_id":       claim.TenantID,
		"seller_id":       claim.SellerID,
		"order_id":        claim.OrderID,
		"approved_amount": caseStatus.ApprovedAmount,
		"currency":        claim.Currency,
	})
}

func (j StatusPollJob) handleDenied(ctx context.Context, claim entities.Claim, caseStatus ports.CaseStatus, now time.Time) error {
	logger := application.ResolveLogger(j.Logger)
	category := classify.Classify(caseStatus.ResolutionText)

	if err := j.emit(ctx, commands.EventClaimDenied, claim, now, map[string]any{
		"claim_id":  claim.ClaimID,
		"tenant_id": claim.TenantID,
		"seller_id": claim.SellerID,
		"reason":    caseStatus.ResolutionText,
		"category":  string(category),
	}); err != nil {
		return err
	}

	previousStatus := claim.Status
	previousFiling := claim.FilingStatus

	switch category {
	case classify.RejectionAlreadyResolved:
		// Retrying an already-paid case wastes quota and looks like abuse.
		claim.Status = entities.ClaimStatusClosedAlreadyResolved
		claim.FilingStatus = entities.FilingStatusFailed
	case classify.RejectionWrongClaimType:
		claim.FilingStatus = entities.FilingStatusPendingApproval
		if claim.Metadata == nil {
			claim.Metadata = map[string]any{}
		}
		claim.Metadata["rejection_reason"] = caseStatus.ResolutionText
		claim.Metadata["rejection_category"] = string(category)
	default:
		// evidence_needed and unknown both feed the stronger-evidence cycle.
		claim.RetryCount++
		if claim.RetryCount < j.maxRetries() {
			claim.FilingStatus = entities.FilingStatusRetrying
		} else {
			claim.Status = entities.ClaimStatusRejected
			claim.FilingStatus = entities.FilingStatusFailed
		}
	}
	claim.UpdatedAt = now
	if err := j.Claims.UpdateClaim(ctx, claim); err != nil {
		return err
	}
	if err := j.audit(ctx, claim, previousStatus, previousFiling, "case_denied_"+string(category), caseStatus.ResolutionText, now); err != nil {
		return err
	}

	logger.Info("claim denial routed",
		"event", "claim_denial_routed",
		"module", "filing-core/claim-engine",
		"layer", "worker",
		"claim_id", claim.ClaimID,
		"category", string(category),
		"filing_status", string(claim.FilingStatus),
		"retry_count", claim.RetryCount,
	)
	return nil
}

func (j StatusPollJob) transition(
	ctx context.Context,
	claim entities.Claim,
	status entities.ClaimStatus,
	filingStatus entities.FilingStatus,
	action string,
	notes string,
	now time.Time,
) error {
	previousStatus := claim.Status
	previousFiling := claim.FilingStatus
	claim.Status = status
	claim.FilingStatus = filingStatus
	claim.UpdatedAt = now
	if err := j.Claims.UpdateClaim(ctx, claim); err != nil {
		return err
	}
	return j.audit(ctx, claim, previousStatus, previousFiling, action, notes, now)
}

func (j StatusPollJob) audit(
	ctx context.Context,
	claim entities.Claim,
	oldStatus entities.ClaimStatus,
	oldFiling entities.FilingStatus,
	action string,
	notes string,
	now time.Time,
) error {
	auditID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return j.Claims.AddAudit(ctx, entities.ClaimAudit{
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

func (j StatusPollJob) emit(ctx context.Context, eventType string, claim entities.Claim, now time.Time, data map[string]any) error {
	if j.Outbox == nil {
		return nil
	}
	eventID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := commands.NewClaimEnvelope(eventID, eventType, claim.ClaimID, now, data)
	if err != nil {
		return err
	}
	return j.Outbox.AppendOutbox(ctx, envelope)
}

func (j StatusPollJob) maxRetries() int {
	if j.MaxRetries > 0 {
		return j.MaxRetries
	}
	return 3
}
