package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
)

// IsImage reports whether the path has a supported image extension
func IsImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// IsPDF reports whether the path has a .pdf extension
func IsPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// IsSupported reports whether the path is an image or PDF the pipeline can handle
func IsSupported(path string) bool {
	return IsImage(path) || IsPDF(path)
}

// Pipeline extracts invoice fields with the vision model and falls back to OCR
type Pipeline struct {
	vision  Vision
	ocr     *OCR
	tempDir string
}

// NewPipeline creates a Pipeline; tempDir holds rasterized PDF pages and defaults to os.TempDir()
func NewPipeline(vision Vision, ocr *OCR, tempDir string) *Pipeline {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Pipeline{vision: vision, ocr: ocr, tempDir: tempDir}
}

// Extract dispatches on the file kind
func (p *Pipeline) Extract(ctx context.Context, path string) (*InvoiceData, error) {
	switch {
	case IsImage(path):
		return p.ExtractImage(ctx, path)
	case IsPDF(path):
		return p.ExtractPDF(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// ExtractImage runs the vision model and falls back to OCR on an *ExtractionError.
// Other errors are returned unchanged, and so is ctx.Err() once ctx is done.
func (p *Pipeline) ExtractImage(ctx context.Context, imagePath string) (*InvoiceData, error) {
	data, err := p.vision.ExtractInvoice(ctx, imagePath)
	if err == nil {
		return data, nil
	}

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	slog.Warn("Vision extraction failed, falling back to OCR", "path", imagePath, "error", err)
	fallback := p.ocr.ExtractInvoice(ctx, imagePath)
	return &fallback, nil
}

// ExtractPDF extracts every page and merges the results.
// If the page loop fails, the last page image is handed to OCR when it still exists.
func (p *Pipeline) ExtractPDF(ctx context.Context, pdfPath string) (*InvoiceData, error) {
	var tempImage string
	defer func() {
		if tempImage != "" {
			os.Remove(tempImage)
		}
	}()

	pages, err := p.extractPages(ctx, pdfPath, &tempImage)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		slog.Error("Failed to process PDF", "path", pdfPath, "error", err)
		if tempImage != "" {
			if _, statErr := os.Stat(tempImage); statErr == nil {
				fallback := p.ocr.ExtractInvoice(ctx, tempImage)
				return &fallback, nil
			}
		}
		return &InvoiceData{Source: SourceNone}, nil
	}

	merged := MergeInvoiceData(pages)
	return &merged, nil
}

// extractPages rasterizes each page to a run-unique temp file and extracts it.
// tempImage always names the page image that has not been removed yet.
func (p *Pipeline) extractPages(ctx context.Context, pdfPath string, tempImage *string) ([]InvoiceData, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	runID := uuid.NewString()
	pageCount := doc.NumPage()
	pages := make([]InvoiceData, 0, pageCount)

	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(p.tempDir, fmt.Sprintf("invoice-%s-page-%d.jpg", runID, i))
		*tempImage = path
		if err := writePageJPEG(doc, i, path); err != nil {
			return nil, err
		}

		data, err := p.ExtractImage(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d: %w", i+1, err)
		}
		slog.Debug("Extracted PDF page", "path", pdfPath, "page", i+1, "source", data.Source)
		pages = append(pages, *data)

		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("removing page image: %w", err)
		}
		*tempImage = ""
	}

	return pages, nil
}

// MergeInvoiceData combines per-page results: for each field independently
// the first non-empty value in page order wins.
func MergeInvoiceData(pages []InvoiceData) InvoiceData {
	merged := InvoiceData{Source: SourceNone}
	for _, page := range pages {
		filled := false
		if merged.CompanyName == "" && page.CompanyName != "" {
			merged.CompanyName = page.CompanyName
			filled = true
		}
		if merged.Amount == "" && page.Amount != "" {
			merged.Amount = page.Amount
			filled = true
		}
		if filled && merged.Source == SourceNone {
			merged.Source = page.Source
		}
	}
	return merged
}
