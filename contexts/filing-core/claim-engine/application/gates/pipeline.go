package gates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "recoup/contexts/filing-core/claim-engine/application"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	"recoup/contexts/filing-core/claim-engine/ports"
)

// Config carries the economic cutoffs. Zero values fall back to defaults.
type Config struct {
	MinFilingThreshold    float64
	HighValueThreshold    float64
	AmountVariance        float64
	ReimbursementLookback time.Duration
}

const (
	defaultMinFilingThreshold    = 25.0
	defaultHighValueThreshold    = 500.0
	defaultAmountVariance        = 0.15
	defaultReimbursementLookback = 6 * 30 * 24 * time.Hour
)

func (c Config) withDefaults() Config {
	if c.MinFilingThreshold <= 0 {
		c.MinFilingThreshold = defaultMinFilingThreshold
	}
	if c.HighValueThreshold <= 0 {
		c.HighValueThreshold = defaultHighValueThreshold
	}
	if c.AmountVariance <= 0 {
		c.AmountVariance = defaultAmountVariance
	}
	if c.ReimbursementLookback <= 0 {
		c.ReimbursementLookback = defaultReimbursementLookback
	}
	return c
}

// SellerQuota is the slice of the quota governor the per-seller gate needs.
type SellerQuota interface {
	CanFileForSeller(ctx context.Context, tenantID, sellerID string) (bool, error)
}

// Pipeline decides whether one candidate claim is safe and economical to
// submit. Gates run cheapest-and-most-dangerous-first and short-circuit on
// the first skip or quarantine. Gates whose own query fails return Unknown
// and the pipeline proceeds (fail open) with a warning; monitor the
// gate_fail_open events.
type Pipeline struct {
	Claims      ports.ClaimRepository
	Evidence    ports.EvidenceReader
	Finance     ports.FinanceReader
	Shipments   ports.ShipmentReader
	SellerQuota SellerQuota
	Clock       ports.Clock
	Config      Config
	Logger      *slog.Logger
}

type evaluation struct {
	claim     entities.Claim
	documents []entities.EvidenceDocument
	now       time.Time
}

// Evaluate runs all twelve gates against the claim. The returned verdict is
// never Unknown: infra failures inside gates are logged and treated as Pass.
func (p Pipeline) Evaluate(ctx context.Context, claim entities.Claim) Verdict {
	logger := application.ResolveLogger(p.Logger)
	cfg := p.Config.withDefaults()

	now := time.Now().UTC()
	if p.Clock != nil {
		now = p.Clock.Now().UTC()
	}
	eval := &evaluation{claim: claim, now: now}

	steps := []struct {
		name string
		run  func(context.Context, *evaluation, Config) Verdict
	}{
		{"evidence_presence", p.gateEvidencePresence},
		{"dangerous_filename", p.gateDangerousFilename},
		{"dangerous_content", p.gateDangerousContent},
		{"duplicate_order", p.gateDuplicateOrder},
		{"double_dip", p.gateDoubleDip},
		{"seller_daily_quota", p.gateSellerDailyQuota},
		{"minimum_roi", p.gateMinimumROI},
		{"dimension_proof", p.gateDimensionProof},
		{"invoice_date", p.gateInvoiceDate},
		{"pod_keywords", p.gatePODKeywords},
		{"amount_cross_validation", p.gateAmountCrossValidation},
		{"high_value_approval", p.gateHighValueApproval},
	}

	for _, step := range steps {
		verdict := step.run(ctx, eval, cfg)
		if verdict.Outcome == OutcomeUnknown {
			logger.Warn("safety gate failed open",
				"event", "gate_fail_open",
				"module", "filing-core/claim-engine",
				"layer", "application",
				"gate", step.name,
				"claim_id", claim.ClaimID,
				"tenant_id", claim.TenantID,
				"error", verdict.Err.Error(),
			)
			continue
		}
		if verdict.Blocked() {
			return verdict
		}
	}
	return Pass("pipeline")
}

// loadDocuments fetches linked evidence once per evaluation.
func (p Pipeline) loadDocuments(ctx context.Context, eval *evaluation) ([]entities.EvidenceDocument, error) {
	if eval.documents != nil {
		return eval.documents, nil
	}
	docs, err := p.Evidence.ListDocuments(ctx, eval.claim.ClaimID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []entities.EvidenceDocument{}
	}
	eval.documents = docs
	return docs, nil
}

func (p Pipeline) gateEvidencePresence(ctx context.Context, eval *evaluation, _ Config) Verdict {
	docs, err := p.loadDocuments(ctx, eval)
	if err != nil {
		return Unknown("evidence_presence", err)
	}
	if len(docs) == 0 {
		return Skip("evidence_presence", "no linked evidence documents", "")
	}
	return Pass("evidence_presence")
}

func (p Pipeline) gateDangerousFilename(ctx context.Context, eval *evaluation, _ Config) Verdict {
	docs, err := p.loadDocuments(ctx, eval)
	if err != nil {
		return Unknown("dangerous_filename", err)
	}
	for _, doc := range docs {
		if keyword, matched := matchDangerousFilename(doc.Filename); matched {
			return Quarantine("dangerous_filename",
				fmt.Sprintf("filename %q matches dangerous keyword %q", doc.Filename, keyword),
				entities.FilingStatusQuarantinedDoc,
				map[string]any{
					"document_id":      doc.DocumentID,
					"matched_filename": doc.Filename,
					"matched_keyword":  keyword,
					"keyword_version":  KeywordTableVersion,
				})
		}
	}
	return Pass("dangerous_filename")
}

func (p Pipeline) gateDangerousContent(ctx context.Context, eval *evaluation, _ Config) Verdict {
	docs, err := p.loadDocuments(ctx, eval)
	if err != nil {
		return Unknown("dangerous_content", err)
	}
	for i, doc := range docs {
		if !doc.Parsed || doc.Text == "" {
			parsed, err := p.Evidence.ParseDocument(ctx, doc.DocumentID)
			if err != nil {
				return Unknown("dangerous_content", err)
			}
			docs[i] = parsed
			doc = parsed
		}
		if doc.Text == "" {
			// Extraction is asynchronous; an empty text body means the
			// document has not been scanned, not that it is clean. No status
			// change: the claim stays a candidate until the text arrives.
			return Skip("dangerous_content",
				fmt.Sprintf("document %s text not yet extracted", doc.DocumentID), "")
		}
		if phrase, matched := matchDangerousContent(doc.Text); matched {
			return Quarantine("dangerous_content",
				fmt.Sprintf("document %s text matches dangerous phrase %q", doc.DocumentID, phrase),
				entities.FilingStatusQuarantinedDoc,
				map[string]any{
					"document_id":     doc.DocumentID,
					"matched_phrase":  phrase,
					"keyword_version": KeywordTableVersion,
				})
		}
	}
	return Pass("dangerous_content")
}

func (p Pipeline) gateDuplicateOrder(ctx context.Context, eval *evaluation, _ Config) Verdict {
	claim := eval.claim
	count, err := p.Claims.CountActiveClaimsForOrder(ctx, claim.TenantID, claim.SellerID, claim.OrderID, claim.ClaimID)
	if err != nil {
		return Unknown("duplicate_order", err)
	}
	if count > 0 {
		return Skip("duplicate_order",
			fmt.Sprintf("active claim already exists for order %s", claim.OrderID),
			entities.FilingStatusDuplicateBlocked)
	}
	return Pass("duplicate_order")
}

func (p Pipeline) gateDoubleDip(ctx context.Context, eval *evaluation, cfg Config) Verdict {
	claim := eval.claim
	since := eval.now.Add(-cfg.ReimbursementLookback)
	reimbursed, err := p.Finance.HasReimbursementSince(ctx, claim.SellerID, claim.OrderID, claim.SKU, claim.ShipmentID, since)
	if err != nil {
		return Unknown("double_dip", err)
	}
	if reimbursed {
		return Skip("double_dip",
			fmt.Sprintf("marketplace reimbursement already exists for order %s", claim.OrderID),
			entities.FilingStatusAlreadyReimbursed)
	}
	return Pass("double_dip")
}

func (p Pipeline) gateSellerDailyQuota(ctx context.Context, eval *evaluation, _ Config) Verdict {
	claim := eval.claim
	allowed, err := p.SellerQuota.CanFileForSeller(ctx, claim.TenantID, claim.SellerID)
	if err != nil {
		return Unknown("seller_daily_quota", err)
	}
	if !allowed {
		// No status change: the claim stays a candidate for the next run.
		return Skip("seller_daily_quota", "seller daily filing ceiling reached", "")
	}
	return Pass("seller_daily_quota")
}

func (p Pipeline) gateMinimumROI(_ context.Context, eval *evaluation, cfg Config) Verdict {
	if eval.claim.Amount < cfg.MinFilingThreshold {
		return Skip("minimum_roi",
			fmt.Sprintf("claim amount %.2f below filing threshold %.2f", eval.claim.Amount, cfg.MinFilingThreshold),
			entities.FilingStatusSkippedLowValue)
	}
	return Pass("minimum_roi")
}

func (p Pipeline) gateDimensionProof(_ context.Context, eval *evaluation, _ Config) Verdict {
	if requiresDimensionProof(eval.claim.ClaimType) {
		verdict := Quarantine("dimension_proof",
			fmt.Sprintf("claim type %s requires physical measurement proof", eval.claim.ClaimType),
			entities.FilingStatusPendingApproval,
			map[string]any{"claim_type": eval.claim.ClaimType})
		verdict.Status = entities.ClaimStatusNeedsDimensionProof
		return verdict
	}
	return Pass("dimension_proof")
}

func (p Pipeline) gateInvoiceDate(ctx context.Context, eval *evaluation, _ Config) Verdict {
	claim := eval.claim
	if claim.ShipmentID == "" {
		return Pass("invoice_date")
	}
	docs, err := p.loadDocuments(ctx, eval)
	if err != nil {
		return Unknown("invoice_date", err)
	}

	var shipment *entities.Shipment
	for _, doc := range docs {
		if doc.InvoiceDate == nil {
			continue
		}
		if shipment == nil {
			loaded, err := p.Shipments.GetShipment(ctx, claim.ShipmentID)
			if err != nil {
				return Unknown("invoice_date", err)
			}
			shipment = &loaded
		}
		if doc.InvoiceDate.After(shipment.CreatedAt) {
			return Skip("invoice_date",
				fmt.Sprintf("invoice date %s postdates shipment created at %s",
					doc.InvoiceDate.Format("2006-01-02"), shipment.CreatedAt.Format("2006-01-02")),
				entities.FilingStatusBlockedInvalidDate)
		}
	}
	return Pass("invoice_date")
}

func (p Pipeline) gatePODKeywords(ctx context.Context, eval *evaluation, _ Config) Verdict {
	docs, err := p.loadDocuments(ctx, eval)
	if err != nil {
		return Unknown("pod_keywords", err)
	}
	var weak []string
	for _, doc := range docs {
		if doc.IsPOD && !hasPODConfirmation(doc.Text) {
			weak = append(weak, doc.DocumentID)
		}
	}
	if len(weak) > 0 {
		verdict := Skip("pod_keywords",
			"proof-of-delivery documents lack delivery confirmation keywords",
			entities.FilingStatusPendingApproval)
		verdict.Metadata = map[string]any{
			"weak_documents":  weak,
			"keyword_version": KeywordTableVersion,
		}
		return verdict
	}
	return Pass("pod_keywords")
}

func (p Pipeline) gateAmountCrossValidation(ctx context.Context, eval *evaluation, cfg Config) Verdict {
	docs, err := p.loadDocuments(ctx, eval)
	if err != nil {
		return Unknown("amount_cross_validation", err)
	}
	for _, doc := range docs {
		if doc.InvoiceTotal <= 0 {
			continue
		}
		diff := eval.claim.Amount - doc.InvoiceTotal
		if diff < 0 {
			diff = -diff
		}
		variance := diff / doc.InvoiceTotal
		if variance > cfg.AmountVariance {
			verdict := Skip("amount_cross_validation",
				fmt.Sprintf("claim amount %.2f deviates %.0f%% from invoice total %.2f",
					eval.claim.Amount, variance*100, doc.InvoiceTotal),
				entities.FilingStatusPendingApproval)
			verdict.Metadata = map[string]any{
				"claim_amount":     eval.claim.Amount,
				"invoice_total":    doc.InvoiceTotal,
				"variance":         variance,
				"allowed_variance": cfg.AmountVariance,
				"document_id":      doc.DocumentID,
			}
			return verdict
		}
	}
	return Pass("amount_cross_validation")
}

func (p Pipeline) gateHighValueApproval(_ context.Context, eval *evaluation, cfg Config) Verdict {
	if eval.claim.Amount > cfg.HighValueThreshold {
		verdict := Skip("high_value_approval",
			fmt.Sprintf("claim amount %.2f exceeds auto-filing ceiling %.2f", eval.claim.Amount, cfg.HighValueThreshold),
			entities.FilingStatusPendingApproval)
		verdict.Metadata = map[string]any{
			"claim_amount": eval.claim.Amount,
			"ceiling":      cfg.HighValueThreshold,
		}
		return verdict
	}
	return Pass("high_value_approval")
}
