package entities

import (
	"strings"
	"time"
)

type ClaimStatus string

const (
	ClaimStatusPending               ClaimStatus = "pending"
	ClaimStatusSubmitted             ClaimStatus = "submitted"
	ClaimStatusAutoSubmitted         ClaimStatus = "auto_submitted"
	ClaimStatusApproved              ClaimStatus = "approved"
	ClaimStatusRejected              ClaimStatus = "rejected"
	ClaimStatusClosed                ClaimStatus = "closed"
	ClaimStatusNeedsDimensionProof   ClaimStatus = "needs_dimension_proof"
	ClaimStatusClosedAlreadyResolved ClaimStatus = "closed_already_resolved"
)

type FilingStatus string

const (
	FilingStatusPending            FilingStatus = "pending"
	FilingStatusRetrying           FilingStatus = "retrying"
	FilingStatusFiled              FilingStatus = "filed"
	FilingStatusFailed             FilingStatus = "failed"
	FilingStatusQuarantinedDoc     FilingStatus = "quarantined_dangerous_doc"
	FilingStatusDuplicateBlocked   FilingStatus = "duplicate_blocked"
	FilingStatusAlreadyReimbursed  FilingStatus = "already_reimbursed"
	FilingStatusSkippedLowValue    FilingStatus = "skipped_low_value"
	FilingStatusPendingApproval    FilingStatus = "pending_approval"
	FilingStatusBlockedInvalidDate FilingStatus = "blocked_invalid_date"
)

// Claim is the unit of work: one detected discrepancy eligible for filing
// against the marketplace case system.
type Claim struct {
	ClaimID      string
	TenantID     string
	SellerID     string
	OrderID      string
	ShipmentID   string
	ASIN         string
	SKU          string
	ClaimType    string
	Amount       float64
	Currency     string
	Confidence   float64
	RetryCount   int
	Status       ClaimStatus
	FilingStatus FilingStatus
	EvidenceIDs  []string
	Metadata     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTerminal reports whether the business-visible lifecycle has ended.
func (c Claim) IsTerminal() bool {
	switch c.Status {
	case ClaimStatusClosed, ClaimStatusApproved, ClaimStatusRejected:
		return true
	}
	return false
}

// IsSideTracked reports whether the engine has routed the claim away from
// autonomous filing. A side-tracked claim must never reach the marketplace.
func (c Claim) IsSideTracked() bool {
	switch c.FilingStatus {
	case FilingStatusQuarantinedDoc,
		FilingStatusDuplicateBlocked,
		FilingStatusAlreadyReimbursed,
		FilingStatusSkippedLowValue,
		FilingStatusPendingApproval,
		FilingStatusBlockedInvalidDate:
		return true
	}
	return false
}

// CanFile guards the filed transition: only pending or retrying claims that
// are not side-tracked may be handed to the filing client.
func (c Claim) CanFile() bool {
	if c.IsSideTracked() || c.IsTerminal() {
		return false
	}
	return c.FilingStatus == FilingStatusPending || c.FilingStatus == FilingStatusRetrying
}

func (c Claim) ValidateCandidate() bool {
	return strings.TrimSpace(c.ClaimID) != "" &&
		strings.TrimSpace(c.TenantID) != "" &&
		strings.TrimSpace(c.SellerID) != "" &&
		strings.TrimSpace(c.OrderID) != ""
}

type ClaimAudit struct {
	AuditID         string
	ClaimID         string
	Action          string
	OldStatus       ClaimStatus
	NewStatus       ClaimStatus
	OldFilingStatus FilingStatus
	NewFilingStatus FilingStatus
	ReasonCode      string
	ReasonNotes     string
	CreatedAt       time.Time
}
