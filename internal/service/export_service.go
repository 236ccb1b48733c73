package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/deptdesk-api/internal/calendar"
	"github.com/campusops/deptdesk-api/pkg/export"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type calendarExpander interface {
	ExpandedEvents(ctx context.Context, batchID string, reference, now time.Time) ([]calendar.Event, error)
}

// ExportResult carries the rendered document and its metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportConfig governs export generation.
type ExportConfig struct {
	Enabled  bool
	MaxRows  int
	PDFTitle string
}

// ExportService renders a batch's materialized timetable as CSV or PDF.
type ExportService struct {
	expander calendarExpander
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	config   ExportConfig
}

// NewExportService constructs an ExportService instance.
func NewExportService(expander calendarExpander, logger *zap.Logger, config ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRows <= 0 {
		config.MaxRows = 2000
	}
	if config.PDFTitle == "" {
		config.PDFTitle = "Department Timetable"
	}
	return &ExportService{
		expander: expander,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		config:   config,
	}
}

// Timetable renders the materialized events of a batch in the given format.
func (s *ExportService) Timetable(ctx context.Context, batchID string, format ExportFormat, reference, now time.Time) (*ExportResult, error) {
	if !s.config.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	events, err := s.expander.ExpandedEvents(ctx, batchID, reference, now)
	if err != nil {
		return nil, err
	}
	if len(events) > s.config.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export exceeds the %d row limit", s.config.MaxRows))
	}

	table := export.Table{
		Columns: []export.Column{
			{Name: "Event ID", Weight: 1.5},
			{Name: "Title", Weight: 2},
			{Name: "Date"},
			{Name: "Start", Weight: 0.7},
			{Name: "End", Weight: 0.7},
			{Name: "Type", Weight: 0.8},
			{Name: "Batch"},
			{Name: "Subject", Weight: 1.5},
			{Name: "Faculty", Weight: 1.5},
		},
	}
	for _, event := range events {
		table.Rows = append(table.Rows, []string{
			event.ID,
			event.Title,
			event.Start.Format("2006-01-02"),
			event.Start.Format("15:04"),
			event.End.Format("15:04"),
			event.ExtendedProps.EntryType,
			event.ExtendedProps.BatchName,
			event.ExtendedProps.SubjectName,
			event.ExtendedProps.FacultyName,
		})
	}

	stamp := now.UTC().Format("20060102")
	switch format {
	case ExportCSV:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("timetable-%s-%s.csv", batchID, stamp),
		}, nil
	case ExportPDF:
		content, err := s.pdf.Render(table, s.config.PDFTitle)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable-%s-%s.pdf", batchID, stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
