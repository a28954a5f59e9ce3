package entities

import "time"

// EvidenceDocument is owned by the evidence subsystem. The engine reads it to
// run safety gates and only writes classification annotations back through
// claim metadata, never through the document itself.
type EvidenceDocument struct {
	DocumentID   string
	ClaimID      string
	Filename     string
	Text         string
	Parsed       bool
	Supplier     string
	InvoiceTotal float64
	InvoiceDate  *time.Time
	IsPOD        bool
	CreatedAt    time.Time
}

// Shipment carries the upstream-extracted shipment creation date used by the
// invoice date gate.
type Shipment struct {
	ShipmentID string
	SellerID   string
	CreatedAt  time.Time
}

// FinancialEvent is one marketplace-side reimbursement record. The double-dip
// gate searches these by order, SKU, or shipment.
type FinancialEvent struct {
	EventID    string
	SellerID   string
	OrderID    string
	SKU        string
	ShipmentID string
	EventType  string
	Amount     float64
	Currency   string
	PostedAt   time.Time
}
