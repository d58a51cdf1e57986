package invoice

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zombor/invoice-renamer/internal/scanning"
)

const (
	RawDir       = "raw"
	ProcessedDir = "processed"
	HistoryFile  = ".invoice-history.db"
)

// HistoryPath is the default run history location for a source folder.
// It lives under processed/ so the source folder only keeps unprocessed files.
func HistoryPath(root string) string {
	return filepath.Join(root, ProcessedDir, HistoryFile)
}

// Layout owns the raw/ and processed/ subfolders of a source folder
type Layout struct {
	Root      string
	Raw       string
	Processed string
}

// NewLayout creates the raw/ and processed/ subfolders if they don't exist
func NewLayout(root string) (*Layout, error) {
	l := &Layout{
		Root:      root,
		Raw:       filepath.Join(root, RawDir),
		Processed: filepath.Join(root, ProcessedDir),
	}

	for _, dir := range []string{l.Raw, l.Processed} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", filepath.Base(dir), err)
		}
	}

	return l, nil
}

// Documents lists the supported invoice files directly inside the root folder, in name order
func (l *Layout) Documents() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !scanning.IsSupported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(l.Root, entry.Name()))
	}
	return paths, nil
}

// Archive moves the original file into raw/, keeping its name
func (l *Layout) Archive(srcPath string) (string, error) {
	dest := filepath.Join(l.Raw, filepath.Base(srcPath))
	if err := os.Rename(srcPath, dest); err != nil {
		return "", fmt.Errorf("moving original to raw: %w", err)
	}
	return dest, nil
}
