package unit

import (
	"context"
	"testing"

	claimengine "recoup/contexts/filing-core/claim-engine"
	"recoup/contexts/filing-core/claim-engine/application/commands"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	"recoup/contexts/filing-core/claim-engine/ports"
)

func TestPollApprovedCaseApprovesClaim(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{filedClaim("claim-appr")}, nil)
	openSubmission(module, "claim-appr", "ext-appr")
	module.FilingClient.ScriptStatus("ext-appr", ports.CaseStatus{
		Status:         entities.SubmissionStatusApproved,
		ResolutionText: "Reimbursement approved",
		ApprovedAmount: 42.5,
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-appr")
	if claim.Status != entities.ClaimStatusApproved {
		t.Fatalf("expected approved, got %s", claim.Status)
	}
	submission, _ := module.Store.GetLatestSubmission(context.Background(), "claim-appr")
	if submission.Status != entities.SubmissionStatusApproved || submission.ApprovedAmount != 42.5 {
		t.Fatalf("submission not updated: %+v", submission)
	}
	if !hasOutboxEvent(module.Store, commands.EventClaimApproved) {
		t.Fatal("expected a claim.approved event")
	}
}

func TestPollDeniedAlreadyResolvedClosesWithoutRetry(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{filedClaim("claim-ar")}, nil)
	openSubmission(module, "claim-ar", "ext-ar")
	module.FilingClient.ScriptStatus("ext-ar", ports.CaseStatus{
		Status:         entities.SubmissionStatusDenied,
		ResolutionText: "Item already reimbursed in FC sweep",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-ar")
	if claim.Status != entities.ClaimStatusClosedAlreadyResolved {
		t.Fatalf("expected closed_already_resolved, got %s", claim.Status)
	}
	if claim.FilingStatus != entities.FilingStatusFailed {
		t.Fatalf("expected failed, got %s", claim.FilingStatus)
	}
	if claim.RetryCount != 0 {
		t.Fatalf("already-resolved denial must not consume a retry, got %d", claim.RetryCount)
	}
	if !hasOutboxEvent(module.Store, commands.EventClaimDenied) {
		t.Fatal("expected a claim.denied event")
	}
}

func TestPollDeniedEvidenceNeededQueuesRetry(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{filedClaim("claim-ev")}, nil)
	openSubmission(module, "claim-ev", "ext-ev")
	module.FilingClient.ScriptStatus("ext-ev", ports.CaseStatus{
		Status:         entities.SubmissionStatusDenied,
		ResolutionText: "Denied due to insufficient evidence",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-ev")
	if claim.FilingStatus != entities.FilingStatusRetrying {
		t.Fatalf("expected retrying, got %s", claim.FilingStatus)
	}
	if claim.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", claim.RetryCount)
	}
	if claim.Status != entities.ClaimStatusAutoSubmitted {
		t.Fatalf("status should be unchanged, got %s", claim.Status)
	}
}

func TestPollDeniedExhaustedRetriesRejectsClaim(t *testing.T) {
	target := filedClaim("claim-exh")
	target.RetryCount = 2
	module := claimengine.NewInMemoryModule([]entities.Claim{target}, nil)
	openSubmission(module, "claim-exh", "ext-exh")
	module.FilingClient.ScriptStatus("ext-exh", ports.CaseStatus{
		Status:         entities.SubmissionStatusDenied,
		ResolutionText: "Denied due to insufficient evidence",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-exh")
	if claim.Status != entities.ClaimStatusRejected {
		t.Fatalf("expected rejected after exhausted retries, got %s", claim.Status)
	}
	if claim.FilingStatus != entities.FilingStatusFailed {
		t.Fatalf("expected failed, got %s", claim.FilingStatus)
	}
}

func TestPollDeniedWrongClaimTypeNeedsHuman(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{filedClaim("claim-wct")}, nil)
	openSubmission(module, "claim-wct", "ext-wct")
	module.FilingClient.ScriptStatus("ext-wct", ports.CaseStatus{
		Status:         entities.SubmissionStatusDenied,
		ResolutionText: "This issue was filed under the wrong claim type",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-wct")
	if claim.FilingStatus != entities.FilingStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", claim.FilingStatus)
	}
	if claim.Metadata["rejection_category"] != "wrong_claim_type" {
		t.Fatalf("expected rejection metadata, got %v", claim.Metadata)
	}
	if claim.RetryCount != 0 {
		t.Fatalf("wrong-type denial must not consume a retry, got %d", claim.RetryCount)
	}
}

func TestPollInProgressInformationRequest(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{filedClaim("claim-info")}, nil)
	openSubmission(module, "claim-info", "ext-info")
	module.FilingClient.ScriptStatus("ext-info", ports.CaseStatus{
		Status:         entities.SubmissionStatusInProgress,
		ResolutionText: "Please provide additional documentation",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-info")
	if claim.FilingStatus != entities.FilingStatusRetrying {
		t.Fatalf("expected retrying, got %s", claim.FilingStatus)
	}
	if claim.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", claim.RetryCount)
	}
	if !hasOutboxEvent(module.Store, commands.EventClaimActionRequired) {
		t.Fatal("expected a claim.action_required event")
	}
	if !hasAuditAction(module.Store, "claim-info", "information_requested") {
		t.Fatal("expected an information_requested audit entry")
	}
}

func TestPollInformationRequestExhaustionRejectsClaim(t *testing.T) {
	exhausted := filedClaim("claim-worn")
	exhausted.RetryCount = 2
	module := claimengine.NewInMemoryModule([]entities.Claim{exhausted}, nil)
	openSubmission(module, "claim-worn", "ext-worn")
	module.FilingClient.ScriptStatus("ext-worn", ports.CaseStatus{
		Status:         entities.SubmissionStatusInProgress,
		ResolutionText: "Please provide additional documentation",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	// Once retries run out the claim must settle in a terminal business
	// status, not linger as auto_submitted with a dead filing pipeline.
	claim, _ := module.Store.GetClaim(context.Background(), "claim-worn")
	if claim.Status != entities.ClaimStatusRejected {
		t.Fatalf("expected rejected, got %s", claim.Status)
	}
	if claim.FilingStatus != entities.FilingStatusFailed {
		t.Fatalf("expected failed, got %s", claim.FilingStatus)
	}
	if claim.RetryCount != 3 {
		t.Fatalf("expected retry count 3, got %d", claim.RetryCount)
	}
}

func TestPollInProgressWithoutRequestLeavesClaimAlone(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{filedClaim("claim-wait")}, nil)
	openSubmission(module, "claim-wait", "ext-wait")
	module.FilingClient.ScriptStatus("ext-wait", ports.CaseStatus{
		Status:         entities.SubmissionStatusInProgress,
		ResolutionText: "Case under review by specialist team",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-wait")
	if claim.FilingStatus != entities.FilingStatusFiled || claim.RetryCount != 0 {
		t.Fatalf("in-progress claim should be untouched, got %+v", claim)
	}
}

func TestPollClosedCaseClosesClaim(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{filedClaim("claim-cl")}, nil)
	openSubmission(module, "claim-cl", "ext-cl")
	module.FilingClient.ScriptStatus("ext-cl", ports.CaseStatus{
		Status:         entities.SubmissionStatusClosed,
		ResolutionText: "Case closed by marketplace",
	})

	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-cl")
	if claim.Status != entities.ClaimStatusClosed {
		t.Fatalf("expected closed, got %s", claim.Status)
	}
}

func TestPollSkipsTerminalClaims(t *testing.T) {
	target := filedClaim("claim-done")
	target.Status = entities.ClaimStatusApproved
	module := claimengine.NewInMemoryModule([]entities.Claim{target}, nil)
	openSubmission(module, "claim-done", "ext-done")

	// No scripted status: any poll attempt would fail loudly, and none may
	// happen for a terminal claim.
	if err := module.StatusPollJob.RunOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
}
