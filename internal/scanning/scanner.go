package scanning

import (
	"context"
	"errors"
)

// ErrExtractionFailed marks any failure of the extraction service. There is
// no partial result: either the whole InvoiceData comes back or this error.
var ErrExtractionFailed = errors.New("extraction failed")

// Document is an uploaded invoice file
type Document struct {
	Data     []byte
	MIMEType string
}

// LineItem is a line item as read by the model
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// InvoiceData contains extracted information from an invoice
type InvoiceData struct {
	Vendor        string     `json:"vendor"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate,omitempty"` // ISO 8601 format, empty if not found
	LineItems     []LineItem `json:"lineItems"`
	Total         float64    `json:"total"`
}

// SuggestionLineItem is a line item sent for review
type SuggestionLineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// SuggestionInput is the invoice data to be reviewed
type SuggestionInput struct {
	Vendor        string               `json:"vendor"`
	InvoiceNumber string               `json:"invoiceNumber"`
	InvoiceDate   string               `json:"invoiceDate"`
	LineItems     []SuggestionLineItem `json:"lineItems"`
	TotalAmount   float64              `json:"totalAmount"`
}

// Scanner defines the interface for invoice extraction operations
type Scanner interface {
	// ExtractInvoice analyzes an invoice PDF/image and extracts its fields
	ExtractInvoice(ctx context.Context, doc Document) (*InvoiceData, error)
	// SuggestImprovements reviews extracted data and proposes corrections
	SuggestImprovements(ctx context.Context, in SuggestionInput) (*Suggestions, error)
	// Close closes the scanner and releases resources
	Close() error
}
