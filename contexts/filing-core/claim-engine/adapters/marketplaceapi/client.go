package marketplaceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"recoup/contexts/filing-core/claim-engine/domain/entities"
	domainerrors "recoup/contexts/filing-core/claim-engine/domain/errors"
	"recoup/contexts/filing-core/claim-engine/ports"
)

const defaultTimeout = 30 * time.Second

// Client files cases against the marketplace reimbursement API. The API is a
// black box: we send a descriptor, get back case identifiers, and later read
// the case status verbatim. All interpretation happens in the application
// layer.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

type submitRequest struct {
	ClaimID     string   `json:"claim_id"`
	SellerID    string   `json:"seller_id"`
	OrderID     string   `json:"order_id"`
	ASIN        string   `json:"asin,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	ClaimType   string   `json:"claim_type"`
	Amount      float64  `json:"amount"`
	Currency    string   `json:"currency"`
	EvidenceIDs []string `json:"evidence_ids,omitempty"`
}

type submitResponse struct {
	CaseID       string `json:"case_id"`
	SubmissionID string `json:"submission_id"`
}

type caseResponse struct {
	Status         string  `json:"status"`
	ResolutionText string  `json:"resolution_text"`
	ApprovedAmount float64 `json:"approved_amount"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Submit(ctx context.Context, descriptor ports.ClaimDescriptor) (ports.FilingReceipt, error) {
	payload := submitRequest{
		ClaimID:     descriptor.ClaimID,
		SellerID:    descriptor.SellerID,
		OrderID:     descriptor.OrderID,
		ASIN:        descriptor.ASIN,
		SKU:         descriptor.SKU,
		ClaimType:   descriptor.ClaimType,
		Amount:      descriptor.Amount,
		Currency:    descriptor.Currency,
		EvidenceIDs: descriptor.EvidenceIDs,
	}

	var response submitResponse
	if err := c.do(ctx, http.MethodPost, "/v1/cases", payload, &response); err != nil {
		return ports.FilingReceipt{}, err
	}
	return ports.FilingReceipt{
		ExternalCaseID:       response.CaseID,
		ExternalSubmissionID: response.SubmissionID,
	}, nil
}

func (c *Client) GetStatus(ctx context.Context, externalSubmissionID string) (ports.CaseStatus, error) {
	var response caseResponse
	path := "/v1/submissions/" + externalSubmissionID
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return ports.CaseStatus{}, err
	}
	return ports.CaseStatus{
		Status:         entities.SubmissionStatus(response.Status),
		ResolutionText: response.ResolutionText,
		ApprovedAmount: response.ApprovedAmount,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", domainerrors.ErrFilingClientFailed, err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domainerrors.ErrFilingClientFailed, err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrFilingClientFailed, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return domainerrors.ErrSubmissionNotFound
	}
	if response.StatusCode >= 400 {
		var apiErr errorResponse
		raw, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%w: %s (%s)", domainerrors.ErrFilingClientFailed, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("%w: status %d", domainerrors.ErrFilingClientFailed, response.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domainerrors.ErrFilingClientFailed, err)
	}
	return nil
}
