package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	application "recoup/contexts/filing-core/claim-engine/application"
	"recoup/contexts/filing-core/claim-engine/application/commands"
	"recoup/contexts/filing-core/claim-engine/application/gates"
	"recoup/contexts/filing-core/claim-engine/application/quota"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	"recoup/contexts/filing-core/claim-engine/ports"
)

// FilingJob is one autonomous filing pass: kill switch, tenant hourly
// allowance, then sequential candidates through the gate pipeline and the
// filing client, with a jittered slot between submissions. Tenants and claims
// are deliberately processed one at a time; throughput is capped by quota
// policy, so the loop trades speed for an unfingerprintable request pattern.
type FilingJob struct {
	Claims       ports.ClaimRepository
	Pipeline     gates.Pipeline
	Governor     quota.Governor
	FileClaim    commands.FileClaimUseCase
	ApplyVerdict commands.ApplyVerdictUseCase
	Pacer        ports.Pacer
	Logger       *slog.Logger

	running atomic.Bool
}

type PassStats struct {
	TenantsProcessed int
	Filed            int
	SideTracked      int
	Failed           int
}

// RunOnce guards against overlapping passes with an in-process flag. That is
// only correct with exactly one running engine instance.
func (j *FilingJob) RunOnce(ctx context.Context) error {
	if !j.running.CompareAndSwap(false, true) {
		return domainerrors.ErrPassAlreadyRunning
	}
	defer j.running.Store(false)

	logger := application.ResolveLogger(j.Logger)
	tenants, err := j.Claims.ListTenantIDs(ctx)
	if err != nil {
		logger.Error("filing pass tenant list failed",
			"event", "filing_pass_tenant_list_failed",
			"module", "filing-core/claim-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	var total PassStats
	for _, tenantID := range tenants {
		stats, err := j.RunTenant(ctx, tenantID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// One tenant's failure must not starve the rest of the pass.
			logger.Error("tenant filing run failed",
				"event", "filing_tenant_run_failed",
				"module", "filing-core/claim-engine",
				"layer", "worker",
				"tenant_id", tenantID,
				"error", err.Error(),
			)
			continue
		}
		total.TenantsProcessed++
		total.Filed += stats.Filed
		total.SideTracked += stats.SideTracked
		total.Failed += stats.Failed
	}

	logger.Info("filing pass completed",
		"event", "filing_pass_completed",
		"module", "filing-core/claim-engine",
		"layer", "worker",
		"tenants_processed", total.TenantsProcessed,
		"filed", total.Filed,
		"side_tracked", total.SideTracked,
		"failed", total.Failed,
	)
	return nil
}

// RunTenant is also the manual "run once for tenant X" operational entry.
func (j *FilingJob) RunTenant(ctx context.Context, tenantID string) (PassStats, error) {
	logger := application.ResolveLogger(j.Logger)

	allowance, err := j.Governor.CanRunTenant(ctx, tenantID)
	if err != nil {
		return PassStats{}, err
	}
	if !allowance.Allowed {
		return PassStats{}, nil
	}

	candidates, err := j.Claims.ListCandidateClaims(ctx, tenantID, allowance.MaxThisRun)
	if err != nil {
		return PassStats{}, err
	}

	var stats PassStats
	for _, claim := range candidates {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if !claim.ValidateCandidate() {
			stats.Failed++
			logger.Warn("malformed candidate skipped",
				"event", "claim_candidate_invalid",
				"module", "filing-core/claim-engine",
				"layer", "worker",
				"tenant_id", tenantID,
				"claim_id", claim.ClaimID,
			)
			continue
		}
		filed, sideTracked, err := j.processClaim(ctx, claim)
		if err != nil {
			stats.Failed++
			logger.Error("claim processing failed",
				"event", "claim_processing_failed",
				"module", "filing-core/claim-engine",
				"layer", "worker",
				"tenant_id", tenantID,
				"claim_id", claim.ClaimID,
				"error", err.Error(),
			)
			continue
		}
		if sideTracked {
			stats.SideTracked++
			continue
		}
		if filed {
			stats.Filed++
		} else {
			stats.Failed++
		}
		// Slot acquisition blocks for the jittered inter-submission wait.
		if j.Pacer != nil {
			if err := j.Pacer.AcquireSlot(ctx); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// RunClaim is the manual "run once for claim Y" operational entry.
func (j *FilingJob) RunClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	claim, err := j.Claims.GetClaim(ctx, claimID)
	if err != nil {
		return entities.Claim{}, err
	}
	if !claim.ValidateCandidate() {
		return claim, domainerrors.ErrInvalidClaimInput
	}
	if !claim.CanFile() {
		return claim, domainerrors.ErrClaimNotFileable
	}

	allowance, err := j.Governor.CanRunTenant(ctx, claim.TenantID)
	if err != nil {
		return claim, err
	}
	if !allowance.Allowed {
		return claim, domainerrors.ErrTenantQuotaExhausted
	}

	if _, _, err := j.processClaim(ctx, claim); err != nil {
		return claim, err
	}
	return j.Claims.GetClaim(ctx, claimID)
}

// processClaim contains panics and errors so one bad claim never aborts the
// remaining candidates.
func (j *FilingJob) processClaim(ctx context.Context, claim entities.Claim) (filed bool, sideTracked bool, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("claim %s processing panicked: %v", claim.ClaimID, recovered)
		}
	}()

	verdict := j.Pipeline.Evaluate(ctx, claim)
	if verdict.Blocked() {
		if _, err := j.ApplyVerdict.Execute(ctx, claim, verdict); err != nil {
			return false, false, err
		}
		return false, true, nil
	}

	_, result, err := j.FileClaim.Execute(ctx, claim)
	if err != nil {
		return false, false, err
	}
	return result.Filed, false, nil
}
