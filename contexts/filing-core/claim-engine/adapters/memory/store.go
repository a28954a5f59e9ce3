package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"recoup/contexts/filing-core/claim-engine/domain/entities"
	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	"recoup/contexts/filing-core/claim-engine/ports"

	"github.com/google/uuid"
)

// Store backs every engine port with mutex-guarded maps. It doubles as Clock
// and IDGenerator, mirroring how the wired postgres adapters behave.
type Store struct {
	mu sync.RWMutex

	claims     map[string]entities.Claim
	claimOrder []string
	audits     []entities.ClaimAudit

	submissions map[string]entities.Submission
	documents   map[string][]entities.EvidenceDocument
	shipments   map[string]entities.Shipment
	finance     []entities.FinancialEvent
	outbox      []ports.OutboxMessage

	filings []filingRecord

	autofileEnabled bool
}

type filingRecord struct {
	tenantID string
	sellerID string
	filedAt  time.Time
}

func NewStore(seed []entities.Claim) *Store {
	store := &Store{
		claims:          make(map[string]entities.Claim, len(seed)),
		submissions:     make(map[string]entities.Submission),
		documents:       make(map[string][]entities.EvidenceDocument),
		shipments:       make(map[string]entities.Shipment),
		autofileEnabled: true,
	}
	for _, claim := range seed {
		store.claims[claim.ClaimID] = claim
		store.claimOrder = append(store.claimOrder, claim.ClaimID)
	}
	return store
}

// --- seeding helpers for tests and local runs ---

func (s *Store) SetAutofileEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autofileEnabled = enabled
}

func (s *Store) AddDocument(doc entities.EvidenceDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ClaimID] = append(s.documents[doc.ClaimID], doc)
}

func (s *Store) AddShipment(shipment entities.Shipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments[shipment.ShipmentID] = shipment
}

func (s *Store) AddFinancialEvent(event entities.FinancialEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finance = append(s.finance, event)
}

func (s *Store) RecordFiling(tenantID, sellerID string, filedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filings = append(s.filings, filingRecord{tenantID: tenantID, sellerID: sellerID, filedAt: filedAt.UTC()})
}

func (s *Store) Audits() []entities.ClaimAudit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ClaimAudit(nil), s.audits...)
}

func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.OutboxMessage(nil), s.outbox...)
}

// --- ports.ClaimRepository ---

func (s *Store) GetClaim(_ context.Context, claimID string) (entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, exists := s.claims[strings.TrimSpace(claimID)]
	if !exists {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Store) UpdateClaim(_ context.Context, claim entities.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[claim.ClaimID]; !exists {
		return domainerrors.ErrClaimNotFound
	}
	s.claims[claim.ClaimID] = claim
	return nil
}

func (s *Store) ListClaims(_ context.Context, filter ports.ClaimFilter) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Claim, 0, len(s.claims))
	for _, id := range s.claimOrder {
		claim := s.claims[id]
		if filter.TenantID != "" && claim.TenantID != filter.TenantID {
			continue
		}
		if filter.SellerID != "" && claim.SellerID != filter.SellerID {
			continue
		}
		if filter.OrderID != "" && claim.OrderID != filter.OrderID {
			continue
		}
		if filter.Status != "" && claim.Status != filter.Status {
			continue
		}
		if filter.FilingStatus != "" && claim.FilingStatus != filter.FilingStatus {
			continue
		}
		items = append(items, claim)
	}
	return items, nil
}

func (s *Store) ListCandidateClaims(_ context.Context, tenantID string, limit int) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Claim, 0)
	for _, id := range s.claimOrder {
		claim := s.claims[id]
		if claim.TenantID != tenantID {
			continue
		}
		if claim.FilingStatus != entities.FilingStatusPending && claim.FilingStatus != entities.FilingStatusRetrying {
			continue
		}
		if claim.Status != entities.ClaimStatusPending && claim.Status != entities.ClaimStatusSubmitted {
			continue
		}
		items = append(items, claim)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) ListFiledClaims(_ context.Context, limit int) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Claim, 0)
	for _, id := range s.claimOrder {
		claim := s.claims[id]
		if claim.FilingStatus != entities.FilingStatusFiled || claim.IsTerminal() {
			continue
		}
		items = append(items, claim)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) ListTenantIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var tenants []string
	for _, id := range s.claimOrder {
		tenantID := s.claims[id].TenantID
		if !seen[tenantID] {
			seen[tenantID] = true
			tenants = append(tenants, tenantID)
		}
	}
	sort.Strings(tenants)
	return tenants, nil
}

func (s *Store) CountActiveClaimsForOrder(_ context.Context, tenantID, sellerID, orderID, excludeClaimID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, claim := range s.claims {
		if claim.ClaimID == excludeClaimID {
			continue
		}
		if claim.TenantID == tenantID && claim.SellerID == sellerID && claim.OrderID == orderID && !claim.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountTenantFilingsSince(_ context.Context, tenantID string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.filings {
		if record.tenantID == tenantID && !record.filedAt.Before(since.UTC()) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountSellerFilingsSince(_ context.Context, tenantID, sellerID string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.filings {
		if record.tenantID == tenantID && record.sellerID == sellerID && !record.filedAt.Before(since.UTC()) {
			count++
		}
	}
	return count, nil
}

func (s *Store) AddAudit(_ context.Context, audit entities.ClaimAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, audit)
	return nil
}

// --- ports.SubmissionRepository ---

func (s *Store) CreateSubmission(_ context.Context, submission entities.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[submission.SubmissionID] = submission
	// Quota counters derive from filings, so record one here.
	if claim, exists := s.claims[submission.ClaimID]; exists {
		s.filings = append(s.filings, filingRecord{
			tenantID: claim.TenantID,
			sellerID: claim.SellerID,
			filedAt:  submission.CreatedAt.UTC(),
		})
	}
	return nil
}

func (s *Store) UpdateSubmission(_ context.Context, submission entities.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[submission.SubmissionID]; !exists {
		return domainerrors.ErrSubmissionNotFound
	}
	s.submissions[submission.SubmissionID] = submission
	return nil
}

func (s *Store) GetLatestSubmission(_ context.Context, claimID string) (entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest entities.Submission
	found := false
	for _, submission := range s.submissions {
		if submission.ClaimID != claimID {
			continue
		}
		if !found || submission.CreatedAt.After(latest.CreatedAt) {
			latest = submission
			found = true
		}
	}
	if !found {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return latest, nil
}

// --- ports.EvidenceReader ---

func (s *Store) ListDocuments(_ context.Context, claimID string) ([]entities.EvidenceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.EvidenceDocument(nil), s.documents[claimID]...), nil
}

func (s *Store) ParseDocument(_ context.Context, documentID string) (entities.EvidenceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for claimID, docs := range s.documents {
		for i, doc := range docs {
			if doc.DocumentID == documentID {
				doc.Parsed = true
				s.documents[claimID][i] = doc
				return doc, nil
			}
		}
	}
	return entities.EvidenceDocument{}, domainerrors.ErrClaimNotFound
}

// --- ports.ShipmentReader ---

func (s *Store) GetShipment(_ context.Context, shipmentID string) (entities.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shipment, exists := s.shipments[shipmentID]
	if !exists {
		return entities.Shipment{}, domainerrors.ErrClaimNotFound
	}
	return shipment, nil
}

// --- ports.FinanceReader ---

func (s *Store) HasReimbursementSince(_ context.Context, sellerID, orderID, sku, shipmentID string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.finance {
		if event.SellerID != sellerID || event.PostedAt.Before(since.UTC()) {
			continue
		}
		if orderID != "" && event.OrderID == orderID {
			return true, nil
		}
		if sku != "" && event.SKU == sku {
			return true, nil
		}
		if shipmentID != "" && event.ShipmentID == shipmentID {
			return true, nil
		}
	}
	return false, nil
}

// --- ports.FeatureFlags ---

func (s *Store) AutofileEnabled(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autofileEnabled, nil
}

// --- ports.OutboxWriter / ports.OutboxRepository ---

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, ports.OutboxMessage{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]ports.OutboxMessage(nil), s.outbox...)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.outbox[:0]
	for _, row := range s.outbox {
		if row.OutboxID != outboxID {
			filtered = append(filtered, row)
		}
	}
	s.outbox = filtered
	return nil
}

func (s *Store) MarkOutboxFailed(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.outbox[:0]
	for _, row := range s.outbox {
		if row.OutboxID != outboxID {
			filtered = append(filtered, row)
		}
	}
	s.outbox = filtered
	return nil
}

// --- ports.Clock / ports.IDGenerator ---

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
