package quota_test

import (
	"context"
	"testing"
	"time"

	"recoup/contexts/filing-core/claim-engine/adapters/memory"
	"recoup/contexts/filing-core/claim-engine/application/quota"
)

func newGovernor(store *memory.Store) quota.Governor {
	return quota.Governor{Claims: store, Flags: store, Clock: store}
}

func TestKillSwitchBlocksTenant(t *testing.T) {
	store := memory.NewStore(nil)
	store.SetAutofileEnabled(false)

	allowance, err := newGovernor(store).CanRunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("can run tenant: %v", err)
	}
	if allowance.Allowed {
		t.Fatal("kill switch off must block the tenant")
	}
}

func TestFreshTenantGetsFullRunBudget(t *testing.T) {
	store := memory.NewStore(nil)

	allowance, err := newGovernor(store).CanRunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("can run tenant: %v", err)
	}
	if !allowance.Allowed || allowance.MaxThisRun != 10 {
		t.Fatalf("expected full budget of 10, got %+v", allowance)
	}
}

func TestHourlyWindowShrinksRunBudget(t *testing.T) {
	store := memory.NewStore(nil)
	for i := 0; i < 8; i++ {
		store.RecordFiling("tenant-1", "seller-1", time.Now().UTC().Add(-15*time.Minute))
	}

	allowance, err := newGovernor(store).CanRunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("can run tenant: %v", err)
	}
	if !allowance.Allowed || allowance.MaxThisRun != 4 {
		t.Fatalf("expected remaining budget of 4, got %+v", allowance)
	}
}

func TestHourlyWindowExhaustionBlocksTenant(t *testing.T) {
	store := memory.NewStore(nil)
	for i := 0; i < 12; i++ {
		store.RecordFiling("tenant-1", "seller-1", time.Now().UTC().Add(-5*time.Minute))
	}

	allowance, err := newGovernor(store).CanRunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("can run tenant: %v", err)
	}
	if allowance.Allowed {
		t.Fatal("twelve filings in the hour must block the tenant")
	}
}

func TestOldFilingsFallOutOfHourlyWindow(t *testing.T) {
	store := memory.NewStore(nil)
	for i := 0; i < 12; i++ {
		store.RecordFiling("tenant-1", "seller-1", time.Now().UTC().Add(-2*time.Hour))
	}

	allowance, err := newGovernor(store).CanRunTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("can run tenant: %v", err)
	}
	if !allowance.Allowed || allowance.MaxThisRun != 10 {
		t.Fatalf("rolled-off filings should restore the budget, got %+v", allowance)
	}
}

func TestSellerDailyCeiling(t *testing.T) {
	store := memory.NewStore(nil)
	governor := newGovernor(store)

	allowed, err := governor.CanFileForSeller(context.Background(), "tenant-1", "seller-1")
	if err != nil {
		t.Fatalf("can file for seller: %v", err)
	}
	if !allowed {
		t.Fatal("fresh seller should be allowed")
	}

	for i := 0; i < 5; i++ {
		store.RecordFiling("tenant-1", "seller-1", time.Now().UTC().Add(-6*time.Hour))
	}
	allowed, err = governor.CanFileForSeller(context.Background(), "tenant-1", "seller-1")
	if err != nil {
		t.Fatalf("can file for seller: %v", err)
	}
	if allowed {
		t.Fatal("five filings in 24h must block the seller")
	}

	// Another seller under the same tenant is unaffected.
	allowed, err = governor.CanFileForSeller(context.Background(), "tenant-1", "seller-2")
	if err != nil {
		t.Fatalf("can file for seller: %v", err)
	}
	if !allowed {
		t.Fatal("seller-2 should still be allowed")
	}
}
