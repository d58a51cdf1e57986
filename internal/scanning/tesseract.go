package scanning

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// TextRecognizer turns an image into plain text
type TextRecognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	slog.Debug("exec finished",
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", time.Since(start).Milliseconds(),
		"stdout_bytes", out.Len(),
		"error", err,
	)

	return out.Bytes(), errb.Bytes(), err
}

// Tesseract implements TextRecognizer by shelling out to the tesseract binary
type Tesseract struct {
	binary string
	lang   string
	runner Runner
}

// NewTesseract creates a Tesseract recognizer; empty arguments select "tesseract" and "eng"
func NewTesseract(binary, lang string) *Tesseract {
	return NewTesseractWithRunner(binary, lang, execRunner{})
}

// NewTesseractWithRunner creates a Tesseract recognizer with a custom command runner for testing
func NewTesseractWithRunner(binary, lang string, runner Runner) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{binary: binary, lang: lang, runner: runner}
}

// Recognize runs `tesseract <image> stdout -l <lang>`
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, errb, err := t.runner.Run(ctx, t.binary, imagePath, "stdout", "-l", t.lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}
