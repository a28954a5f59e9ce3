package commands

import (
	"context"
	"log/slog"
	"time"

	application "recoup/contexts/filing-core/claim-engine/application"
	"recoup/contexts/filing-core/claim-engine/application/gates"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	"recoup/contexts/filing-core/claim-engine/ports"
)

// ApplyVerdictUseCase writes a gate's side-track decision onto the claim:
// filing_status/status, gate metadata, an audit row, and a human-review event
// when the claim now needs someone's eyes.
type ApplyVerdictUseCase struct {
	Claims ports.ClaimRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Outbox ports.OutboxWriter
	Logger *slog.Logger
}

func (uc ApplyVerdictUseCase) Execute(ctx context.Context, claim entities.Claim, verdict gates.Verdict) (entities.Claim, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}

	logger.Info("claim side-tracked by safety gate",
		"event", "claim_gate_blocked",
		"module", "filing-core/claim-engine",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"tenant_id", claim.TenantID,
		"gate", verdict.Gate,
		"outcome", string(verdict.Outcome),
		"reason", verdict.Reason,
		"filing_status", string(verdict.FilingStatus),
	)

	// Quota-style skips carry no status change; the claim stays a candidate
	// for the next run and nothing is persisted.
	if verdict.FilingStatus == "" && verdict.Status == "" {
		return claim, nil
	}

	previousStatus := claim.Status
	previousFiling := claim.FilingStatus
	claim.FilingStatus = verdict.FilingStatus
	if verdict.Status != "" {
		claim.Status = verdict.Status
	}
	if claim.Metadata == nil {
		claim.Metadata = map[string]any{}
	}
	claim.Metadata["gate"] = verdict.Gate
	claim.Metadata["gate_reason"] = verdict.Reason
	if len(verdict.Metadata) > 0 {
		claim.Metadata["gate_details"] = verdict.Metadata
	}
	claim.UpdatedAt = now

	if err := uc.Claims.UpdateClaim(ctx, claim); err != nil {
		return claim, err
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return claim, err
	}
	if err := uc.Claims.AddAudit(ctx, entities.ClaimAudit{
		AuditID:         auditID,
		ClaimID:         claim.ClaimID,
		Action:          "gate_" + verdict.Gate,
		OldStatus:       previousStatus,
		NewStatus:       claim.Status,
		OldFilingStatus: previousFiling,
		NewFilingStatus: claim.FilingStatus,
		ReasonCode:      string(verdict.Outcome),
		ReasonNotes:     verdict.Reason,
		CreatedAt:       now,
	}); err != nil {
		return claim, err
	}

	if uc.Outbox != nil && needsHumanReview(claim.FilingStatus) {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return claim, err
		}
		envelope, err := NewClaimEnvelope(eventID, EventClaimActionRequired, claim.ClaimID, now, map[string]any{
			"claim_id":      claim.ClaimID,
			"tenant_id":     claim.TenantID,
			"seller_id":     claim.SellerID,
			"filing_status": string(claim.FilingStatus),
			"gate":          verdict.Gate,
			"reason":        verdict.Reason,
		})
		if err != nil {
			return claim, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return claim, err
		}
	}
	return claim, nil
}

func needsHumanReview(status entities.FilingStatus) bool {
	return status == entities.FilingStatusPendingApproval || status == entities.FilingStatusQuarantinedDoc
}
