package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	claimengine "recoup/contexts/filing-core/claim-engine"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	httptransport "recoup/contexts/filing-core/claim-engine/transport/http"
)

func testModule() claimengine.Module {
	return claimengine.NewInMemoryModule([]entities.Claim{
		{
			ClaimID:      "claim-1",
			TenantID:     "tenant-1",
			SellerID:     "seller-1",
			OrderID:      "112-0001",
			ClaimType:    "lost_inbound",
			Amount:       100,
			Currency:     "USD",
			Status:       entities.ClaimStatusPending,
			FilingStatus: entities.FilingStatusPending,
			CreatedAt:    time.Now().UTC(),
		},
	}, nil)
}

func TestHealthRoute(t *testing.T) {
	server := New(testModule(), nil, ":0")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestGetClaimRoute(t *testing.T) {
	server := New(testModule(), nil, ":0")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ops/claims/claim-1", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body)
	}

	var response httptransport.GetClaimResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Claim.ClaimID != "claim-1" {
		t.Fatalf("unexpected claim %+v", response.Claim)
	}
}

func TestGetClaimRouteNotFound(t *testing.T) {
	server := New(testModule(), nil, ":0")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ops/claims/claim-missing", nil))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}

	var response httptransport.ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", response.Code)
	}
}

func TestListClaimsRouteFilters(t *testing.T) {
	server := New(testModule(), nil, ":0")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder,
		httptest.NewRequest(http.MethodGet, "/ops/claims?tenant_id=tenant-1&filing_status=pending", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var response httptransport.ListClaimsResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Total != 1 {
		t.Fatalf("expected one claim, got %+v", response)
	}
}

func TestRunTenantRoute(t *testing.T) {
	server := New(testModule(), nil, ":0")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder,
		httptest.NewRequest(http.MethodPost, "/ops/tenants/tenant-1/run", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body)
	}
}
