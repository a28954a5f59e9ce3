package postgresadapter

import (
	"encoding/json"
	"time"

	"recoup/contexts/filing-core/claim-engine/domain/entities"
)

type claimModel struct {
	ClaimID      string    `gorm:"column:claim_id;primaryKey"`
	TenantID     string    `gorm:"column:tenant_id"`
	SellerID     string    `gorm:"column:seller_id"`
	OrderID      string    `gorm:"column:order_id"`
	ShipmentID   string    `gorm:"column:shipment_id"`
	ASIN         string    `gorm:"column:asin"`
	SKU          string    `gorm:"column:sku"`
	ClaimType    string    `gorm:"column:claim_type"`
	Amount       float64   `gorm:"column:amount"`
	Currency     string    `gorm:"column:currency"`
	Confidence   float64   `gorm:"column:confidence"`
	RetryCount   int       `gorm:"column:retry_count"`
	Status       string    `gorm:"column:status"`
	FilingStatus string    `gorm:"column:filing_status"`
	EvidenceIDs  []byte    `gorm:"column:evidence_ids"`
	Metadata     []byte    `gorm:"column:metadata"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (claimModel) TableName() string {
	return "claims"
}

func (m claimModel) toEntity() entities.Claim {
	var evidenceIDs []string
	if len(m.EvidenceIDs) > 0 {
		_ = json.Unmarshal(m.EvidenceIDs, &evidenceIDs)
	}
	var metadata map[string]any
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	return entities.Claim{
		ClaimID:      m.ClaimID,
		TenantID:     m.TenantID,
		SellerID:     m.SellerID,
		OrderID:      m.OrderID,
		ShipmentID:   m.ShipmentID,
		ASIN:         m.ASIN,
		SKU:          m.SKU,
		ClaimType:    m.ClaimType,
		Amount:       m.Amount,
		Currency:     m.Currency,
		Confidence:   m.Confidence,
		RetryCount:   m.RetryCount,
		Status:       entities.ClaimStatus(m.Status),
		FilingStatus: entities.FilingStatus(m.FilingStatus),
		EvidenceIDs:  evidenceIDs,
		Metadata:     metadata,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func claimModelFromEntity(claim entities.Claim) (claimModel, error) {
	evidenceIDs, err := json.Marshal(claim.EvidenceIDs)
	if err != nil {
		return claimModel{}, err
	}
	metadata := claim.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return claimModel{}, err
	}
	return claimModel{
		ClaimID:      claim.ClaimID,
		TenantID:     claim.TenantID,
		SellerID:     claim.SellerID,
		OrderID:      claim.OrderID,
		ShipmentID:   claim.ShipmentID,
		ASIN:         claim.ASIN,
		SKU:          claim.SKU,
		ClaimType:    claim.ClaimType,
		Amount:       claim.Amount,
		Currency:     claim.Currency,
		Confidence:   claim.Confidence,
		RetryCount:   claim.RetryCount,
		Status:       string(claim.Status),
		FilingStatus: string(claim.FilingStatus),
		EvidenceIDs:  evidenceIDs,
		Metadata:     metadataJSON,
		CreatedAt:    claim.CreatedAt.UTC(),
		UpdatedAt:    claim.UpdatedAt.UTC(),
	}, nil
}

func claimsFromModels(rows []claimModel) []entities.Claim {
	items := make([]entities.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type claimAuditModel struct {
	AuditID         string    `gorm:"column:audit_id;primaryKey"`
	ClaimID         string    `gorm:"column:claim_id"`
	Action          string    `gorm:"column:action"`
	OldStatus       string    `gorm:"column:old_status"`
	NewStatus       string    `gorm:"column:new_status"`
	OldFilingStatus string    `gorm:"column:old_filing_status"`
	NewFilingStatus string    `gorm:"column:new_filing_status"`
	ReasonCode      string    `gorm:"column:reason_code"`
	ReasonNotes     string    `gorm:"column:reason_notes"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (claimAuditModel) TableName() string {
	return "claims_audit"
}

type submissionModel struct {
	SubmissionID         string    `gorm:"column:submission_id;primaryKey"`
	ClaimID              string    `gorm:"column:claim_id"`
	ExternalCaseID       string    `gorm:"column:external_case_id"`
	ExternalSubmissionID string    `gorm:"column:external_submission_id"`
	Status               string    `gorm:"column:status"`
	ResolutionText       string    `gorm:"column:resolution_text"`
	ApprovedAmount       float64   `gorm:"column:approved_amount"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (submissionModel) TableName() string {
	return "submissions"
}

func (m submissionModel) toEntity() entities.Submission {
	return entities.Submission{
		SubmissionID:         m.SubmissionID,
		ClaimID:              m.ClaimID,
		ExternalCaseID:       m.ExternalCaseID,
		ExternalSubmissionID: m.ExternalSubmissionID,
		Status:               entities.SubmissionStatus(m.Status),
		ResolutionText:       m.ResolutionText,
		ApprovedAmount:       m.ApprovedAmount,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func submissionModelFromEntity(submission entities.Submission) submissionModel {
	return submissionModel{
		SubmissionID:         submission.SubmissionID,
		ClaimID:              submission.ClaimID,
		ExternalCaseID:       submission.ExternalCaseID,
		ExternalSubmissionID: submission.ExternalSubmissionID,
		Status:               string(submission.Status),
		ResolutionText:       submission.ResolutionText,
		ApprovedAmount:       submission.ApprovedAmount,
		CreatedAt:            submission.CreatedAt.UTC(),
		UpdatedAt:            submission.UpdatedAt.UTC(),
	}
}

type evidenceDocumentModel struct {
	DocumentID       string     `gorm:"column:document_id;primaryKey"`
	ClaimID          string     `gorm:"column:claim_id"`
	Filename         string     `gorm:"column:filename"`
	Text             string     `gorm:"column:extracted_text"`
	Parsed           bool       `gorm:"column:parsed"`
	Supplier         string     `gorm:"column:supplier"`
	InvoiceTotal     float64    `gorm:"column:invoice_total"`
	InvoiceDate      *time.Time `gorm:"column:invoice_date"`
	IsPOD            bool       `gorm:"column:is_pod"`
	ParseRequestedAt *time.Time `gorm:"column:parse_requested_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
}

func (evidenceDocumentModel) TableName() string {
	return "evidence_documents"
}

func (m evidenceDocumentModel) toEntity() entities.EvidenceDocument {
	return entities.EvidenceDocument{
		DocumentID:   m.DocumentID,
		ClaimID:      m.ClaimID,
		Filename:     m.Filename,
		Text:         m.Text,
		Parsed:       m.Parsed,
		Supplier:     m.Supplier,
		InvoiceTotal: m.InvoiceTotal,
		InvoiceDate:  m.InvoiceDate,
		IsPOD:        m.IsPOD,
		CreatedAt:    m.CreatedAt,
	}
}

type shipmentModel struct {
	ShipmentID string    `gorm:"column:shipment_id;primaryKey"`
	SellerID   string    `gorm:"column:seller_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (shipmentModel) TableName() string {
	return "shipments"
}

type financialEventModel struct {
	EventID    string    `gorm:"column:event_id;primaryKey"`
	SellerID   string    `gorm:"column:seller_id"`
	OrderID    string    `gorm:"column:order_id"`
	SKU        string    `gorm:"column:sku"`
	ShipmentID string    `gorm:"column:shipment_id"`
	EventType  string    `gorm:"column:event_type"`
	Amount     float64   `gorm:"column:amount"`
	Currency   string    `gorm:"column:currency"`
	PostedAt   time.Time `gorm:"column:posted_at"`
}

func (financialEventModel) TableName() string {
	return "financial_events"
}

type featureFlagModel struct {
	FlagName  string    `gorm:"column:flag_name;primaryKey"`
	Enabled   bool      `gorm:"column:enabled"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (featureFlagModel) TableName() string {
	return "feature_flags"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

func (outboxModel) TableName() string {
	return "claim_engine_outbox"
}
