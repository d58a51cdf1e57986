package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	companyPattern = regexp.MustCompile(`(?im)^[ \t]*(?:company|business|from)[ \t]*:[ \t]*(.+)$`)
	amountPattern  = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
)

// OCR is the local best-effort extractor used when the vision model fails
type OCR struct {
	recognizer TextRecognizer
	tempDir    string
}

// NewOCR creates an OCR extractor; tempDir holds preprocessed images and defaults to os.TempDir()
func NewOCR(recognizer TextRecognizer, tempDir string) *OCR {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &OCR{recognizer: recognizer, tempDir: tempDir}
}

// ExtractInvoice recognizes the image text and matches the company name and amount.
// It never fails: any error yields empty fields.
func (o *OCR) ExtractInvoice(ctx context.Context, imagePath string) InvoiceData {
	text, err := o.recognize(ctx, imagePath)
	if err != nil {
		slog.Warn("OCR extraction failed", "path", imagePath, "error", err)
		return InvoiceData{Source: SourceNone}
	}

	data := matchInvoiceFields(text)
	data.Source = SourceOCR
	return data
}

func (o *OCR) recognize(ctx context.Context, imagePath string) (string, error) {
	enhanced, err := o.enhance(imagePath)
	if err != nil {
		return "", err
	}
	defer os.Remove(enhanced)

	return o.recognizer.Recognize(ctx, enhanced)
}

// enhance writes a grayscale, high-contrast, sharpened copy of the image for better OCR results
func (o *OCR) enhance(imagePath string) (string, error) {
	src, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	path := filepath.Join(o.tempDir, fmt.Sprintf("invoice-ocr-%s.png", uuid.NewString()))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("saving enhanced image: %w", err)
	}
	return path, nil
}

// matchInvoiceFields applies the company and amount patterns to recognized text
func matchInvoiceFields(text string) InvoiceData {
	var data InvoiceData
	if m := companyPattern.FindStringSubmatch(text); m != nil {
		data.CompanyName = strings.TrimSpace(m[1])
	}
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		data.Amount = strings.TrimSpace(m[1])
	}
	return data
}
