package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// pageJPEGQuality is the quality used when rasterized PDF pages are written for the vision model
const pageJPEGQuality = 90

// DecodeImage decodes a JPEG, PNG or HEIC image file.
// HEIC is detected from the content, since phones often export it under a .jpg name.
func DecodeImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	if isHEICFormat(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, HEIC. Error: %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files carry an ftyp box at offset 4 with a HEIC-related brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// ValidatePDF opens a PDF to make sure it can be read
func ValidatePDF(path string) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("opening PDF: %w", err)
	}
	return doc.Close()
}

// writePageJPEG renders one PDF page and writes it as a JPEG file
func writePageJPEG(doc *fitz.Document, page int, path string) error {
	img, err := doc.Image(page)
	if err != nil {
		return fmt.Errorf("rendering PDF page %d: %w", page+1, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating page image: %w", err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: pageJPEGQuality}); err != nil {
		f.Close()
		return fmt.Errorf("encoding JPEG: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing page image: %w", err)
	}
	return nil
}
