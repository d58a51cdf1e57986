package scanning

import (
	"context"
	"fmt"
)

// Source names the extractor that produced an InvoiceData
const (
	SourceVision = "vision"
	SourceOCR    = "ocr"
	SourceNone   = "none"
)

// InvoiceData contains the two fields extracted from an invoice.
// Unknown fields are empty strings.
type InvoiceData struct {
	CompanyName string `json:"company_name"`
	Amount      string `json:"amount"`
	Source      string `json:"-"`
}

// Vision defines the interface for vision-model invoice extraction
type Vision interface {
	// ExtractInvoice reads the image at imagePath and asks the model for the invoice fields.
	// Failures the OCR fallback can recover from are returned as *ExtractionError.
	ExtractInvoice(ctx context.Context, imagePath string) (*InvoiceData, error)
	// Close closes the client and releases resources
	Close() error
}

// Extractor extracts invoice fields from an image or PDF file
type Extractor interface {
	Extract(ctx context.Context, path string) (*InvoiceData, error)
}

// ExtractionError marks a vision failure (transport, API status, reply format)
// that should be answered by falling back to OCR.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func extractionErr(op string, err error) error {
	return &ExtractionError{Op: op, Err: err}
}
