package unit

import (
	"context"
	"testing"
	"time"

	claimengine "recoup/contexts/filing-core/claim-engine"
	"recoup/contexts/filing-core/claim-engine/application/commands"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
)

func TestLowValueClaimIsSkippedWithoutFiling(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-low", 15)}, nil)
	module.Store.AddDocument(invoiceDoc("claim-low", 15))

	stats, err := module.FilingJob.RunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("run tenant: %v", err)
	}
	if stats.SideTracked != 1 || stats.Filed != 0 {
		t.Fatalf("expected one side-tracked claim, got %+v", stats)
	}

	claim, err := module.Store.GetClaim(context.Background(), "claim-low")
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if claim.FilingStatus != entities.FilingStatusSkippedLowValue {
		t.Fatalf("expected skipped_low_value, got %s", claim.FilingStatus)
	}
	if len(module.FilingClient.Submitted()) != 0 {
		t.Fatal("low-value claim must never reach the filing client")
	}
}

func TestHighValueClaimRequiresApproval(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-high", 600)}, nil)
	module.Store.AddDocument(invoiceDoc("claim-high", 600))

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-high")
	if claim.FilingStatus != entities.FilingStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", claim.FilingStatus)
	}
	if len(module.FilingClient.Submitted()) != 0 {
		t.Fatal("high-value claim must not auto-file")
	}
	if !hasOutboxEvent(module.Store, commands.EventClaimActionRequired) {
		t.Fatal("expected an action-required event for human review")
	}
}

func TestDangerousFilenameQuarantinesClaim(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-danger", 100)}, nil)
	doc := invoiceDoc("claim-danger", 100)
	doc.Filename = "credit_note_2024.pdf"
	module.Store.AddDocument(doc)

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-danger")
	if claim.FilingStatus != entities.FilingStatusQuarantinedDoc {
		t.Fatalf("expected quarantined_dangerous_doc, got %s", claim.FilingStatus)
	}
	if len(module.FilingClient.Submitted()) != 0 {
		t.Fatal("quarantined claim must never reach the filing client")
	}
	if !hasAuditAction(module.Store, "claim-danger", "gate_dangerous_filename") {
		t.Fatal("expected a quarantine audit entry")
	}
}

func TestDangerousContentQuarantinesClaim(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-memo", 100)}, nil)
	doc := invoiceDoc("claim-memo", 100)
	doc.Text = "Credit memo issued against invoice 42"
	module.Store.AddDocument(doc)

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-memo")
	if claim.FilingStatus != entities.FilingStatusQuarantinedDoc {
		t.Fatalf("expected quarantined_dangerous_doc, got %s", claim.FilingStatus)
	}
}

func TestUnextractedDocumentDefersFiling(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-raw", 100)}, nil)
	doc := invoiceDoc("claim-raw", 100)
	doc.Text = ""
	doc.Parsed = false
	module.Store.AddDocument(doc)

	stats, err := module.FilingJob.RunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("run tenant: %v", err)
	}
	if stats.SideTracked != 1 || stats.Filed != 0 {
		t.Fatalf("expected one side-tracked claim, got %+v", stats)
	}

	// Empty text means the scan has not happened, not that the scan is
	// clean. The claim must stay a candidate for the next pass.
	claim, err := module.Store.GetClaim(context.Background(), "claim-raw")
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if claim.FilingStatus != entities.FilingStatusPending {
		t.Fatalf("expected claim to remain pending, got %s", claim.FilingStatus)
	}
	if claim.Status != entities.ClaimStatusPending {
		t.Fatalf("expected pending status, got %s", claim.Status)
	}
	if len(module.FilingClient.Submitted()) != 0 {
		t.Fatal("unscanned document must never reach the filing client")
	}
}

func TestDuplicateOrderIsBlocked(t *testing.T) {
	existing := filedClaim("claim-first")
	duplicate := candidateClaim("claim-second", 100)
	duplicate.OrderID = existing.OrderID

	module := claimengine.NewInMemoryModule([]entities.Claim{existing, duplicate}, nil)
	module.Store.AddDocument(invoiceDoc("claim-second", 100))

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-second")
	if claim.FilingStatus != entities.FilingStatusDuplicateBlocked {
		t.Fatalf("expected duplicate_blocked, got %s", claim.FilingStatus)
	}
	if len(module.FilingClient.Submitted()) != 0 {
		t.Fatal("duplicate claim must not file")
	}
}

func TestExistingReimbursementBlocksDoubleDip(t *testing.T) {
	target := candidateClaim("claim-dip", 100)
	module := claimengine.NewInMemoryModule([]entities.Claim{target}, nil)
	module.Store.AddDocument(invoiceDoc("claim-dip", 100))
	module.Store.AddFinancialEvent(entities.FinancialEvent{
		EventID:   "fin-1",
		SellerID:  target.SellerID,
		OrderID:   target.OrderID,
		EventType: "reimbursement",
		Amount:    100,
		Currency:  "USD",
		PostedAt:  time.Now().UTC().Add(-24 * time.Hour),
	})

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-dip")
	if claim.FilingStatus != entities.FilingStatusAlreadyReimbursed {
		t.Fatalf("expected already_reimbursed, got %s", claim.FilingStatus)
	}
}

func TestInvoiceDateAfterShipmentIsBlocked(t *testing.T) {
	target := candidateClaim("claim-date", 100)
	target.ShipmentID = "ship-1"
	module := claimengine.NewInMemoryModule([]entities.Claim{target}, nil)

	invoiceDate := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	doc := invoiceDoc("claim-date", 100)
	doc.InvoiceDate = &invoiceDate
	module.Store.AddDocument(doc)
	module.Store.AddShipment(entities.Shipment{
		ShipmentID: "ship-1",
		SellerID:   target.SellerID,
		CreatedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-date")
	if claim.FilingStatus != entities.FilingStatusBlockedInvalidDate {
		t.Fatalf("expected blocked_invalid_date, got %s", claim.FilingStatus)
	}
}

func TestDimensionClaimTypeNeedsHumanProof(t *testing.T) {
	target := candidateClaim("claim-dim", 100)
	target.ClaimType = "fee_overcharge_dimensions"
	module := claimengine.NewInMemoryModule([]entities.Claim{target}, nil)
	module.Store.AddDocument(invoiceDoc("claim-dim", 100))

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-dim")
	if claim.FilingStatus != entities.FilingStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", claim.FilingStatus)
	}
	if claim.Status != entities.ClaimStatusNeedsDimensionProof {
		t.Fatalf("expected needs_dimension_proof, got %s", claim.Status)
	}
}

func TestWeakProofOfDeliveryNeedsReview(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-pod", 100)}, nil)
	module.Store.AddDocument(invoiceDoc("claim-pod", 100))
	module.Store.AddDocument(entities.EvidenceDocument{
		DocumentID: "doc-pod",
		ClaimID:    "claim-pod",
		Filename:   "carrier_scan.pdf",
		Text:       "Carrier scan events attached",
		Parsed:     true,
		IsPOD:      true,
	})

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-pod")
	if claim.FilingStatus != entities.FilingStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", claim.FilingStatus)
	}
	if !hasAuditAction(module.Store, "claim-pod", "gate_pod_keywords") {
		t.Fatal("expected a pod_keywords audit entry")
	}
}

func TestAmountFarFromInvoiceTotalNeedsReview(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-var", 100)}, nil)
	module.Store.AddDocument(invoiceDoc("claim-var", 50))

	if _, err := module.FilingJob.RunTenant(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("run tenant: %v", err)
	}

	claim, _ := module.Store.GetClaim(context.Background(), "claim-var")
	if claim.FilingStatus != entities.FilingStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", claim.FilingStatus)
	}
	if !hasAuditAction(module.Store, "claim-var", "gate_amount_cross_validation") {
		t.Fatal("expected an amount_cross_validation audit entry")
	}
}

func TestMissingEvidenceSkipsWithoutStatusChange(t *testing.T) {
	module := claimengine.NewInMemoryModule([]entities.Claim{candidateClaim("claim-noev", 100)}, nil)

	stats, err := module.FilingJob.RunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("run tenant: %v", err)
	}
	if stats.SideTracked != 1 {
		t.Fatalf("expected one side-tracked claim, got %+v", stats)
	}

	// The claim stays a candidate: evidence may be attached before the next
	// pass.
	claim, _ := module.Store.GetClaim(context.Background(), "claim-noev")
	if claim.FilingStatus != entities.FilingStatusPending {
		t.Fatalf("expected filing status to stay pending, got %s", claim.FilingStatus)
	}
}
