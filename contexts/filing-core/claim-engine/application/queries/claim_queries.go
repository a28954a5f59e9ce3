package queries

import (
	"context"
	"log/slog"

	"recoup/contexts/filing-core/claim-engine/domain/entities"
	"recoup/contexts/filing-core/claim-engine/ports"
)

type ListClaimsQuery struct {
	TenantID     string
	SellerID     string
	OrderID      string
	Status       string
	FilingStatus string
}

type QueryUseCase struct {
	Claims      ports.ClaimRepository
	Submissions ports.SubmissionRepository
	Logger      *slog.Logger
}

func (uc QueryUseCase) GetClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	return uc.Claims.GetClaim(ctx, claimID)
}

func (uc QueryUseCase) GetLatestSubmission(ctx context.Context, claimID string) (entities.Submission, error) {
	return uc.Submissions.GetLatestSubmission(ctx, claimID)
}

func (uc QueryUseCase) ListClaims(ctx context.Context, query ListClaimsQuery) ([]entities.Claim, error) {
	return uc.Claims.ListClaims(ctx, ports.ClaimFilter{
		TenantID:     query.TenantID,
		SellerID:     query.SellerID,
		OrderID:      query.OrderID,
		Status:       entities.ClaimStatus(query.Status),
		FilingStatus: entities.FilingStatus(query.FilingStatus),
	})
}
