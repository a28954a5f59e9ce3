package ports

import (
	"context"
	"time"

	"recoup/contexts/filing-core/claim-engine/domain/entities"
	contractsv1 "recoup/contracts/gen/events/v1"
)

type ClaimFilter struct {
	TenantID     string
	SellerID     string
	OrderID      string
	Status       entities.ClaimStatus
	FilingStatus entities.FilingStatus
}

// ClaimRepository is the persistence surface the engine owns. Candidates are
// claims in filing_status pending/retrying and status pending/submitted,
// returned in insertion order from the upstream matcher.
type ClaimRepository interface {
	GetClaim(ctx context.Context, claimID string) (entities.Claim, error)
	UpdateClaim(ctx context.Context, claim entities.Claim) error
	ListClaims(ctx context.Context, filter ClaimFilter) ([]entities.Claim, error)
	ListCandidateClaims(ctx context.Context, tenantID string, limit int) ([]entities.Claim, error)
	ListFiledClaims(ctx context.Context, limit int) ([]entities.Claim, error)
	ListTenantIDs(ctx context.Context) ([]string, error)
	CountActiveClaimsForOrder(ctx context.Context, tenantID, sellerID, orderID, excludeClaimID string) (int64, error)
	CountTenantFilingsSince(ctx context.Context, tenantID string, since time.Time) (int64, error)
	CountSellerFilingsSince(ctx context.Context, tenantID, sellerID string, since time.Time) (int64, error)
	AddAudit(ctx context.Context, audit entities.ClaimAudit) error
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission entities.Submission) error
	UpdateSubmission(ctx context.Context, submission entities.Submission) error
	GetLatestSubmission(ctx context.Context, claimID string) (entities.Submission, error)
}

// EvidenceReader exposes the evidence subsystem. ParseDocument is the
// on-demand parse trigger for documents whose text has not been extracted.
type EvidenceReader interface {
	ListDocuments(ctx context.Context, claimID string) ([]entities.EvidenceDocument, error)
	ParseDocument(ctx context.Context, documentID string) (entities.EvidenceDocument, error)
}

type ShipmentReader interface {
	GetShipment(ctx context.Context, shipmentID string) (entities.Shipment, error)
}

// FinanceReader searches marketplace reimbursement history for the double-dip
// gate. Any of orderID/sku/shipmentID may be empty; a match on any populated
// key counts.
type FinanceReader interface {
	HasReimbursementSince(ctx context.Context, sellerID, orderID, sku, shipmentID string, since time.Time) (bool, error)
}

// FeatureFlags exposes the global kill switch.
type FeatureFlags interface {
	AutofileEnabled(ctx context.Context) (bool, error)
}

type ClaimDescriptor struct {
	ClaimID     string
	TenantID    string
	SellerID    string
	OrderID     string
	ASIN        string
	SKU         string
	ClaimType   string
	Amount      float64
	Currency    string
	EvidenceIDs []string
}

type FilingReceipt struct {
	ExternalCaseID       string
	ExternalSubmissionID string
}

type CaseStatus struct {
	Status         entities.SubmissionStatus
	ResolutionText string
	ApprovedAmount float64
}

// FilingClient is the black-box marketplace API. Idempotency against the
// marketplace is the client's responsibility.
type FilingClient interface {
	Submit(ctx context.Context, descriptor ClaimDescriptor) (FilingReceipt, error)
	GetStatus(ctx context.Context, externalSubmissionID string) (CaseStatus, error)
}

// Pacer hands out submission slots. Acquiring a slot blocks the caller for a
// jittered duration so automated timing cannot be fingerprinted.
type Pacer interface {
	AcquireSlot(ctx context.Context) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
	// MarkOutboxFailed dead-letters a row that can never publish (for
	// example an undecodable payload) so it stops occupying the pending set.
	MarkOutboxFailed(ctx context.Context, outboxID string, failedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
