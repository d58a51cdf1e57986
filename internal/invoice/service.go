package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-renamer/internal/scanning"
)

// IDGenerator generates unique IDs for history records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// Progress receives the file count and one tick per finished file
type Progress interface {
	ChangeMax(max int)
	Add(n int) error
	Finish() error
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service renames the invoices of one folder
type Service struct {
	extractor   scanning.Extractor
	layout      *Layout
	history     History
	progress    Progress
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// history may be nil to disable the run history.
func NewService(extractor scanning.Extractor, layout *Layout, history History) *Service {
	return &Service{
		extractor:   extractor,
		layout:      layout,
		history:     history,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(extractor scanning.Extractor, layout *Layout, history History, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		extractor:   extractor,
		layout:      layout,
		history:     history,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// WithProgress reports per-file progress to p
func (s *Service) WithProgress(p Progress) *Service {
	s.progress = p
	return s
}

// ProcessFolder runs every supported file of the folder through the pipeline.
// A failing file is recorded in the summary and the batch moves on.
// The error is only set when the folder can't be listed or ctx is done.
func (s *Service) ProcessFolder(ctx context.Context) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths, err := s.layout.Documents()
	if err != nil {
		return nil, err
	}

	slog.Info("Processing invoices", "folder", s.layout.Root, "files", len(paths))
	if s.progress != nil {
		s.progress.ChangeMax(len(paths))
	}

	summary := &Summary{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		record, err := s.ProcessFile(ctx, path)
		if err != nil {
			slog.Error("Failed to process invoice", "path", path, "error", err)
			summary.Failed = append(summary.Failed, path)
		} else {
			summary.Processed = append(summary.Processed, record)
		}
		s.saveRecord(record)

		if s.progress != nil {
			if err := s.progress.Add(1); err != nil {
				slog.Debug("Failed to update progress", "error", err)
			}
		}
	}

	if s.progress != nil {
		if err := s.progress.Finish(); err != nil {
			slog.Debug("Failed to finish progress", "error", err)
		}
	}

	return summary, nil
}

// ProcessFile extracts, renames, converts and archives a single invoice.
// The returned record is never nil and describes the failure when err is set.
// The original is archived only after the processed PDF was written.
func (s *Service) ProcessFile(ctx context.Context, path string) (*Record, error) {
	record := &Record{
		ID:         s.idGenerator.Generate(),
		SourceFile: filepath.Base(path),
		Status:     StatusFailed,
		CreatedAt:  s.timeSource.Now(),
	}

	fail := func(err error) (*Record, error) {
		record.Error = err.Error()
		return record, err
	}

	data, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return fail(fmt.Errorf("extracting invoice data: %w", err))
	}
	record.CompanyName = data.CompanyName
	record.Amount = data.Amount
	record.Source = data.Source

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	filename := CanonicalFilename(*data)
	target, err := s.layout.Materialize(path, filename)
	if err != nil {
		return fail(err)
	}
	record.ProcessedFile = filepath.Base(target)

	archived, err := s.layout.Archive(path)
	if err != nil {
		return fail(err)
	}
	record.ArchivedFile = filepath.Base(archived)
	record.Status = StatusProcessed

	slog.Info("Processed invoice",
		"file", record.SourceFile,
		"processed", record.ProcessedFile,
		"source", record.Source,
	)

	return record, nil
}

func (s *Service) saveRecord(record *Record) {
	if s.history == nil {
		return
	}
	if err := s.history.SaveRecord(record); err != nil {
		slog.Warn("Failed to save history record", "file", record.SourceFile, "error", err)
	}
}

// History returns the saved records, oldest first
func (s *Service) History() ([]*Record, error) {
	if s.history == nil {
		return nil, nil
	}
	records, err := s.history.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}
