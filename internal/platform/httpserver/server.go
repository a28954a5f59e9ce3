package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	claimengine "recoup/contexts/filing-core/claim-engine"
	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	httptransport "recoup/contexts/filing-core/claim-engine/transport/http"
)

// Server exposes the engine's operational surface. The engine has no public
// API of its own: these routes exist for operators and tests.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	engine claimengine.Module
}

func New(engine claimengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		engine: engine,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /ops/tenants/{tenant_id}/run", s.handleRunTenant)
	s.mux.HandleFunc("POST /ops/claims/{claim_id}/run", s.handleRunClaim)
	s.mux.HandleFunc("GET /ops/claims/{claim_id}", s.handleGetClaim)
	s.mux.HandleFunc("GET /ops/claims", s.handleListClaims)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRunTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	response, err := s.engine.Handler.RunTenantHandler(r.Context(), tenantID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRunClaim(w http.ResponseWriter, r *http.Request) {
	claimID := r.PathValue("claim_id")
	response, err := s.engine.Handler.RunClaimHandler(r.Context(), claimID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claimID := r.PathValue("claim_id")
	response, err := s.engine.Handler.GetClaimHandler(r.Context(), claimID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	response, err := s.engine.Handler.ListClaimsHandler(
		r.Context(),
		query.Get("tenant_id"),
		query.Get("seller_id"),
		query.Get("order_id"),
		query.Get("status"),
		query.Get("filing_status"),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, domainerrors.ErrClaimNotFound),
		errors.Is(err, domainerrors.ErrSubmissionNotFound),
		errors.Is(err, domainerrors.ErrTenantNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domainerrors.ErrClaimNotFileable):
		status, code = http.StatusConflict, "not_fileable"
	case errors.Is(err, domainerrors.ErrTenantQuotaExhausted),
		errors.Is(err, domainerrors.ErrSellerQuotaExhausted):
		status, code = http.StatusTooManyRequests, "quota_exhausted"
	case errors.Is(err, domainerrors.ErrFilingDisabled):
		status, code = http.StatusConflict, "filing_disabled"
	case errors.Is(err, domainerrors.ErrPassAlreadyRunning):
		status, code = http.StatusConflict, "pass_running"
	case errors.Is(err, domainerrors.ErrInvalidClaimInput):
		status, code = http.StatusBadRequest, "invalid_input"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("ops request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	s.writeJSON(w, status, httptransport.ErrorResponse{Code: code, Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed",
			"event", "http_encode_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}
