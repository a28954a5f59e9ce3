package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "recoup/contexts/filing-core/claim-engine/application"
	"recoup/contexts/filing-core/claim-engine/application/queries"
	"recoup/contexts/filing-core/claim-engine/application/workers"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	httptransport "recoup/contexts/filing-core/claim-engine/transport/http"
)

// Handler exposes the manual operational entry points: run one tenant, run
// one claim, and claim lookups. The filing job wired here carries a zero
// pacer; an operator triggering a single run should not sit through jitter.
type Handler struct {
	FilingJob *workers.FilingJob
	Queries   queries.QueryUseCase
	Logger    *slog.Logger
}

func (h Handler) RunTenantHandler(ctx context.Context, tenantID string) (httptransport.RunTenantResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	stats, err := h.FilingJob.RunTenant(ctx, tenantID)
	if err != nil {
		return httptransport.RunTenantResponse{}, err
	}
	logger.Info("manual tenant run completed",
		"event", "ops_tenant_run_completed",
		"module", "filing-core/claim-engine",
		"layer", "adapter",
		"tenant_id", tenantID,
		"filed", stats.Filed,
		"side_tracked", stats.SideTracked,
		"failed", stats.Failed,
	)
	return httptransport.RunTenantResponse{
		TenantID:    tenantID,
		Filed:       stats.Filed,
		SideTracked: stats.SideTracked,
		Failed:      stats.Failed,
	}, nil
}

func (h Handler) RunClaimHandler(ctx context.Context, claimID string) (httptransport.RunClaimResponse, error) {
	claim, err := h.FilingJob.RunClaim(ctx, claimID)
	if err != nil {
		return httptransport.RunClaimResponse{}, err
	}
	return httptransport.RunClaimResponse{Claim: mapClaim(claim)}, nil
}

func (h Handler) GetClaimHandler(ctx context.Context, claimID string) (httptransport.GetClaimResponse, error) {
	claim, err := h.Queries.GetClaim(ctx, claimID)
	if err != nil {
		return httptransport.GetClaimResponse{}, err
	}
	response := httptransport.GetClaimResponse{Claim: mapClaim(claim)}

	submission, err := h.Queries.GetLatestSubmission(ctx, claimID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrSubmissionNotFound) {
			return httptransport.GetClaimResponse{}, err
		}
		return response, nil
	}
	dto := mapSubmission(submission)
	response.Submission = &dto
	return response, nil
}

func (h Handler) ListClaimsHandler(
	ctx context.Context,
	tenantID, sellerID, orderID, status, filingStatus string,
) (httptransport.ListClaimsResponse, error) {
	items, err := h.Queries.ListClaims(ctx, queries.ListClaimsQuery{
		TenantID:     tenantID,
		SellerID:     sellerID,
		OrderID:      orderID,
		Status:       status,
		FilingStatus: filingStatus,
	})
	if err != nil {
		return httptransport.ListClaimsResponse{}, err
	}
	dtos := make([]httptransport.ClaimDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, mapClaim(item))
	}
	return httptransport.ListClaimsResponse{Claims: dtos, Total: len(dtos)}, nil
}

func mapClaim(claim entities.Claim) httptransport.ClaimDTO {
	return httptransport.ClaimDTO{
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
		Metadata:     claim.Metadata,
		CreatedAt:    claim.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    claim.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapSubmission(submission entities.Submission) httptransport.SubmissionDTO {
	return httptransport.SubmissionDTO{
		SubmissionID:         submission.SubmissionID,
		ClaimID:              submission.ClaimID,
		ExternalCaseID:       submission.ExternalCaseID,
		ExternalSubmissionID: submission.ExternalSubmissionID,
		Status:               string(submission.Status),
		ResolutionText:       submission.ResolutionText,
		ApprovedAmount:       submission.ApprovedAmount,
		CreatedAt:            submission.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            submission.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
