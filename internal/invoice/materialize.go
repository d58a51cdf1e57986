package invoice

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"github.com/zombor/invoice-renamer/internal/scanning"
)

// pdfJPEGQuality is the quality of the page image embedded in converted PDFs
const pdfJPEGQuality = 95

// Materialize writes the original as a PDF named filename inside processed/ and returns its path.
// Images are converted and always overwrite the target; PDFs are copied only when the target doesn't exist.
func (l *Layout) Materialize(srcPath, filename string) (string, error) {
	target := filepath.Join(l.Processed, filename)

	switch {
	case scanning.IsImage(srcPath):
		if err := imageToPDF(srcPath, target); err != nil {
			return "", fmt.Errorf("converting image to PDF: %w", err)
		}
	case scanning.IsPDF(srcPath):
		if err := copyPDF(srcPath, target); err != nil {
			return "", fmt.Errorf("copying PDF: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(srcPath))
	}

	return target, nil
}

// imageToPDF re-encodes an image as a single-page PDF, one point per pixel
func imageToPDF(srcPath, target string) error {
	img, err := scanning.DecodeImage(srcPath)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("image has no pixels")
	}

	// Flatten transparency onto white; JPEG has no alpha channel
	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: pdfJPEGQuality}); err != nil {
		return fmt.Errorf("encoding JPEG: %w", err)
	}

	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	doc.RegisterImageOptionsReader("invoice", opts, &buf)
	doc.ImageOptions("invoice", 0, 0, w, h, false, opts, 0, "")

	if err := doc.OutputFileAndClose(target); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

// copyPDF copies a readable PDF to target unless target already exists
func copyPDF(srcPath, target string) error {
	if err := scanning.ValidatePDF(srcPath); err != nil {
		return err
	}

	if _, err := os.Stat(target); err == nil {
		slog.Info("Processed file already exists, keeping it", "target", target, "source", srcPath)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking target: %w", err)
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("writing target: %w", err)
	}
	return out.Close()
}
