package quota

import (
	"context"
	"log/slog"
	"time"

	application "recoup/contexts/filing-core/claim-engine/application"
	"recoup/contexts/filing-core/claim-engine/ports"
)

type Config struct {
	MaxPerRun          int
	MaxPerHour         int
	MaxPerSellerPerDay int
}

const (
	defaultMaxPerRun          = 10
	defaultMaxPerHour         = 12
	defaultMaxPerSellerPerDay = 5
)

func (c Config) withDefaults() Config {
	if c.MaxPerRun <= 0 {
		c.MaxPerRun = defaultMaxPerRun
	}
	if c.MaxPerHour <= 0 {
		c.MaxPerHour = defaultMaxPerHour
	}
	if c.MaxPerSellerPerDay <= 0 {
		c.MaxPerSellerPerDay = defaultMaxPerSellerPerDay
	}
	return c
}

type TenantAllowance struct {
	Allowed    bool
	MaxThisRun int
}

// Governor enforces the global kill switch and the rolling-window filing
// ceilings. Checks are advisory reads followed by a later write; correctness
// under multiple engine instances would need a conditional increment at the
// persistence layer. Single-instance execution is assumed.
type Governor struct {
	Claims ports.ClaimRepository
	Flags  ports.FeatureFlags
	Clock  ports.Clock
	Config Config
	Logger *slog.Logger
}

func (g Governor) now() time.Time {
	if g.Clock != nil {
		return g.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// CanRunTenant returns whether autonomous filing may proceed for the tenant
// and how many filings this pass may make. The kill switch read is
// fail-closed: if the flag cannot be read, nothing files.
func (g Governor) CanRunTenant(ctx context.Context, tenantID string) (TenantAllowance, error) {
	logger := application.ResolveLogger(g.Logger)
	cfg := g.Config.withDefaults()

	enabled, err := g.Flags.AutofileEnabled(ctx)
	if err != nil {
		return TenantAllowance{}, err
	}
	if !enabled {
		logger.Info("autofile kill switch is off",
			"event", "quota_kill_switch_off",
			"module", "filing-core/claim-engine",
			"layer", "application",
			"tenant_id", tenantID,
		)
		return TenantAllowance{Allowed: false}, nil
	}

	lastHour, err := g.Claims.CountTenantFilingsSince(ctx, tenantID, g.now().Add(-time.Hour))
	if err != nil {
		return TenantAllowance{}, err
	}
	remaining := cfg.MaxPerHour - int(lastHour)
	if remaining <= 0 {
		logger.Info("tenant hourly filing quota exhausted",
			"event", "quota_tenant_hour_exhausted",
			"module", "filing-core/claim-engine",
			"layer", "application",
			"tenant_id", tenantID,
			"filings_last_hour", lastHour,
			"max_per_hour", cfg.MaxPerHour,
		)
		return TenantAllowance{Allowed: false}, nil
	}

	maxThisRun := cfg.MaxPerRun
	if remaining < maxThisRun {
		maxThisRun = remaining
	}
	return TenantAllowance{Allowed: true, MaxThisRun: maxThisRun}, nil
}

// CanFileForSeller checks the trailing-24h per-seller ceiling.
func (g Governor) CanFileForSeller(ctx context.Context, tenantID, sellerID string) (bool, error) {
	cfg := g.Config.withDefaults()
	lastDay, err := g.Claims.CountSellerFilingsSince(ctx, tenantID, sellerID, g.now().Add(-24*time.Hour))
	if err != nil {
		return false, err
	}
	return int(lastDay) < cfg.MaxPerSellerPerDay, nil
}
