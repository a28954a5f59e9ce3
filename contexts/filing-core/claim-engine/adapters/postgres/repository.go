package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"recoup/contexts/filing-core/claim-engine/domain/entities"
	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	"recoup/contexts/filing-core/claim-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
	outboxStatusFailed    = "failed"

	autofileFlagName = "autofile_enabled"
)

var candidateFilingStatuses = []string{
	string(entities.FilingStatusPending),
	string(entities.FilingStatusRetrying),
}

var candidateClaimStatuses = []string{
	string(entities.ClaimStatusPending),
	string(entities.ClaimStatusSubmitted),
}

var terminalClaimStatuses = []string{
	string(entities.ClaimStatusClosed),
	string(entities.ClaimStatusApproved),
	string(entities.ClaimStatusRejected),
}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// --- ports.ClaimRepository ---

func (r *Repository) GetClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claim{}, domainerrors.ErrClaimNotFound
		}
		return entities.Claim{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateClaim(ctx context.Context, claim entities.Claim) error {
	row, err := claimModelFromEntity(claim)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("claim_id = ?", claim.ClaimID).
		Updates(map[string]any{
			"status":        row.Status,
			"filing_status": row.FilingStatus,
			"retry_count":   row.RetryCount,
			"metadata":      row.Metadata,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrDuplicateActiveClaim
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrClaimNotFound
	}
	return nil
}

func (r *Repository) ListClaims(ctx context.Context, filter ports.ClaimFilter) ([]entities.Claim, error) {
	tx := r.db.WithContext(ctx).Model(&claimModel{})
	if strings.TrimSpace(filter.TenantID) != "" {
		tx = tx.Where("tenant_id = ?", strings.TrimSpace(filter.TenantID))
	}
	if strings.TrimSpace(filter.SellerID) != "" {
		tx = tx.Where("seller_id = ?", strings.TrimSpace(filter.SellerID))
	}
	if strings.TrimSpace(filter.OrderID) != "" {
		tx = tx.Where("order_id = ?", strings.TrimSpace(filter.OrderID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.FilingStatus != "" {
		tx = tx.Where("filing_status = ?", string(filter.FilingStatus))
	}

	var rows []claimModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return claimsFromModels(rows), nil
}

// ListCandidateClaims keeps the upstream matcher's insertion order; the
// filing pass relies on it.
func (r *Repository) ListCandidateClaims(ctx context.Context, tenantID string, limit int) ([]entities.Claim, error) {
	tx := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("filing_status IN ?", candidateFilingStatuses).
		Where("status IN ?", candidateClaimStatuses).
		Order("created_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []claimModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return claimsFromModels(rows), nil
}

func (r *Repository) ListFiledClaims(ctx context.Context, limit int) ([]entities.Claim, error) {
	tx := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("filing_status = ?", string(entities.FilingStatusFiled)).
		Where("status NOT IN ?", terminalClaimStatuses).
		Order("updated_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []claimModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return claimsFromModels(rows), nil
}

func (r *Repository) ListTenantIDs(ctx context.Context) ([]string, error) {
	var tenants []string
	err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("filing_status IN ?", candidateFilingStatuses).
		Where("status IN ?", candidateClaimStatuses).
		Distinct("tenant_id").
		Order("tenant_id ASC").
		Pluck("tenant_id", &tenants).
		Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *Repository) CountActiveClaimsForOrder(ctx context.Context, tenantID, sellerID, orderID, excludeClaimID string) (int64, error) {
	var count int64
	tx := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("seller_id = ?", strings.TrimSpace(sellerID)).
		Where("order_id = ?", strings.TrimSpace(orderID)).
		Where("status NOT IN ?", terminalClaimStatuses)
	if strings.TrimSpace(excludeClaimID) != "" {
		tx = tx.Where("claim_id <> ?", strings.TrimSpace(excludeClaimID))
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) CountTenantFilingsSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Joins("JOIN claims ON claims.claim_id = submissions.claim_id").
		Where("claims.tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("submissions.created_at >= ?", since.UTC()).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) CountSellerFilingsSince(ctx context.Context, tenantID, sellerID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Joins("JOIN claims ON claims.claim_id = submissions.claim_id").
		Where("claims.tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("claims.seller_id = ?", strings.TrimSpace(sellerID)).
		Where("submissions.created_at >= ?", since.UTC()).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) AddAudit(ctx context.Context, audit entities.ClaimAudit) error {
	row := claimAuditModel{
		AuditID:         strings.TrimSpace(audit.AuditID),
		ClaimID:         strings.TrimSpace(audit.ClaimID),
		Action:          strings.TrimSpace(audit.Action),
		OldStatus:       string(audit.OldStatus),
		NewStatus:       string(audit.NewStatus),
		OldFilingStatus: string(audit.OldFilingStatus),
		NewFilingStatus: string(audit.NewFilingStatus),
		ReasonCode:      strings.TrimSpace(audit.ReasonCode),
		ReasonNotes:     strings.TrimSpace(audit.ReasonNotes),
		CreatedAt:       audit.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// --- ports.SubmissionRepository ---

func (r *Repository) CreateSubmission(ctx context.Context, submission entities.Submission) error {
	row := submissionModelFromEntity(submission)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) UpdateSubmission(ctx context.Context, submission entities.Submission) error {
	result := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Where("submission_id = ?", strings.TrimSpace(submission.SubmissionID)).
		Updates(map[string]any{
			"status":          string(submission.Status),
			"resolution_text": submission.ResolutionText,
			"approved_amount": submission.ApprovedAmount,
			"updated_at":      submission.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSubmissionNotFound
	}
	return nil
}

func (r *Repository) GetLatestSubmission(ctx context.Context, claimID string) (entities.Submission, error) {
	var row submissionModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.Submission{}, err
	}
	return row.toEntity(), nil
}

// --- ports.EvidenceReader ---

func (r *Repository) ListDocuments(ctx context.Context, claimID string) ([]entities.EvidenceDocument, error) {
	var rows []evidenceDocumentModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	docs := make([]entities.EvidenceDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.toEntity())
	}
	return docs, nil
}

// ParseDocument requests extraction from the evidence subsystem and returns
// the current row. The engine never parses documents itself; it stamps the
// request and the evidence workers fill in the text.
func (r *Repository) ParseDocument(ctx context.Context, documentID string) (entities.EvidenceDocument, error) {
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).
		Model(&evidenceDocumentModel{}).
		Where("document_id = ?", strings.TrimSpace(documentID)).
		Update("parse_requested_at", now).
		Error; err != nil {
		return entities.EvidenceDocument{}, err
	}

	var row evidenceDocumentModel
	err := r.db.WithContext(ctx).
		Where("document_id = ?", strings.TrimSpace(documentID)).
		First(&row).
		Error
	if err != nil {
		return entities.EvidenceDocument{}, err
	}
	return row.toEntity(), nil
}

// --- ports.ShipmentReader ---

func (r *Repository) GetShipment(ctx context.Context, shipmentID string) (entities.Shipment, error) {
	var row shipmentModel
	err := r.db.WithContext(ctx).
		Where("shipment_id = ?", strings.TrimSpace(shipmentID)).
		First(&row).
		Error
	if err != nil {
		return entities.Shipment{}, err
	}
	return entities.Shipment{
		ShipmentID: row.ShipmentID,
		SellerID:   row.SellerID,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// --- ports.FinanceReader ---

func (r *Repository) HasReimbursementSince(ctx context.Context, sellerID, orderID, sku, shipmentID string, since time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&financialEventModel{}).
		Where("seller_id = ?", strings.TrimSpace(sellerID)).
		Where("event_type = ?", "reimbursement").
		Where("posted_at >= ?", since.UTC())

	matchers := r.db.Where("1 = 0")
	if strings.TrimSpace(orderID) != "" {
		matchers = matchers.Or("order_id = ?", strings.TrimSpace(orderID))
	}
	if strings.TrimSpace(sku) != "" {
		matchers = matchers.Or("sku = ?", strings.TrimSpace(sku))
	}
	if strings.TrimSpace(shipmentID) != "" {
		matchers = matchers.Or("shipment_id = ?", strings.TrimSpace(shipmentID))
	}

	var count int64
	if err := tx.Where(matchers).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// --- ports.FeatureFlags ---

// AutofileEnabled treats a missing flag row as off: the kill switch has to be
// deliberately armed before anything files.
func (r *Repository) AutofileEnabled(ctx context.Context) (bool, error) {
	var row featureFlagModel
	err := r.db.WithContext(ctx).
		Where("flag_name = ?", autofileFlagName).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return row.Enabled, nil
}

// --- ports.OutboxWriter / ports.OutboxRepository ---

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	tx := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []outboxModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, outboxID string, failedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusFailed,
			"published_at": failedAt.UTC(),
		}).
		Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
