package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ClaimDTO struct {
	ClaimID      string         `json:"claim_id"`
	TenantID     string         `json:"tenant_id"`
	SellerID     string         `json:"seller_id"`
	OrderID      string         `json:"order_id"`
	ShipmentID   string         `json:"shipment_id,omitempty"`
	ASIN         string         `json:"asin,omitempty"`
	SKU          string         `json:"sku,omitempty"`
	ClaimType    string         `json:"claim_type"`
	Amount       float64        `json:"amount"`
	Currency     string         `json:"currency"`
	Confidence   float64        `json:"confidence"`
	RetryCount   int            `json:"retry_count"`
	Status       string         `json:"status"`
	FilingStatus string         `json:"filing_status"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

type SubmissionDTO struct {
	SubmissionID         string  `json:"submission_id"`
	ClaimID              string  `json:"claim_id"`
	ExternalCaseID       string  `json:"external_case_id"`
	ExternalSubmissionID string  `json:"external_submission_id"`
	Status               string  `json:"status"`
	ResolutionText       string  `json:"resolution_text,omitempty"`
	ApprovedAmount       float64 `json:"approved_amount,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

type RunTenantResponse struct {
	TenantID    string `json:"tenant_id"`
	Filed       int    `json:"filed"`
	SideTracked int    `json:"side_tracked"`
	Failed      int    `json:"failed"`
}

type RunClaimResponse struct {
	Claim ClaimDTO `json:"claim"`
}

type GetClaimResponse struct {
	Claim      ClaimDTO       `json:"claim"`
	Submission *SubmissionDTO `json:"submission,omitempty"`
}

type ListClaimsResponse struct {
	Claims []ClaimDTO `json:"claims"`
	Total  int        `json:"total"`
}
