package unit

import (
	"context"
	"time"

	claimengine "recoup/contexts/filing-core/claim-engine"
	"recoup/contexts/filing-core/claim-engine/adapters/memory"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
)

func candidateClaim(claimID string, amount float64) entities.Claim {
	return entities.Claim{
		ClaimID:      claimID,
		TenantID:     "tenant-1",
		SellerID:     "seller-1",
		OrderID:      "112-" + claimID,
		ClaimType:    "lost_inbound",
		Amount:       amount,
		Currency:     "USD",
		Confidence:   0.95,
		Status:       entities.ClaimStatusPending,
		FilingStatus: entities.FilingStatusPending,
		CreatedAt:    time.Now().UTC().Add(-time.Hour),
	}
}

// filedClaim is a claim in the polled population: filed and awaiting a
// marketplace decision.
func filedClaim(claimID string) entities.Claim {
	claim := candidateClaim(claimID, 100)
	claim.Status = entities.ClaimStatusAutoSubmitted
	claim.FilingStatus = entities.FilingStatusFiled
	return claim
}

func invoiceDoc(claimID string, total float64) entities.EvidenceDocument {
	return entities.EvidenceDocument{
		DocumentID:   "doc-" + claimID,
		ClaimID:      claimID,
		Filename:     "supplier_invoice.pdf",
		Text:         "Supplier invoice for inbound units",
		Parsed:       true,
		Supplier:     "Acme Wholesale",
		InvoiceTotal: total,
		CreatedAt:    time.Now().UTC().Add(-2 * time.Hour),
	}
}

func openSubmission(module claimengine.Module, claimID, externalSubmissionID string) {
	now := time.Now().UTC().Add(-30 * time.Minute)
	module.Store.CreateSubmission(context.Background(), entities.Submission{
		SubmissionID:         "sub-" + claimID,
		ClaimID:              claimID,
		ExternalCaseID:       "case-" + claimID,
		ExternalSubmissionID: externalSubmissionID,
		Status:               entities.SubmissionStatusOpen,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
}

func hasOutboxEvent(store *memory.Store, eventType string) bool {
	for _, row := range store.OutboxEvents() {
		if row.EventType == eventType {
			return true
		}
	}
	return false
}

func hasAuditAction(store *memory.Store, claimID, action string) bool {
	for _, audit := range store.Audits() {
		if audit.ClaimID == claimID && audit.Action == action {
			return true
		}
	}
	return false
}
