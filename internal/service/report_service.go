package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
	"github.com/shikshalink/attendance-api/pkg/export"
)

type summaryGetter interface {
	Get(ctx context.Context, schoolID, classSectionID, month string) (*models.MonthlySummary, error)
}

// ReportService renders monthly summaries as downloadable files.
type ReportService struct {
	summaries summaryGetter
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(summaries summaryGetter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		summaries: summaries,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// MonthlySummaryCSV renders one class-section's month as CSV bytes.
func (s *ReportService) MonthlySummaryCSV(ctx context.Context, schoolID, classSectionID, month string) ([]byte, error) {
	data, err := s.dataset(ctx, schoolID, classSectionID, month)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(*data)
}

// MonthlySummaryPDF renders one class-section's month as PDF bytes.
func (s *ReportService) MonthlySummaryPDF(ctx context.Context, schoolID, classSectionID, month string) ([]byte, error) {
	data, err := s.dataset(ctx, schoolID, classSectionID, month)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Attendance Summary %s %s", classSectionID, month)
	return s.pdf.Render(*data, title)
}

func (s *ReportService) dataset(ctx context.Context, schoolID, classSectionID, month string) (*export.Dataset, error) {
	summary, err := s.summaries.Get(ctx, schoolID, classSectionID, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load summary")
	}
	if summary == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no summary for that month")
	}
	return SummaryDataset(summary), nil
}

// SummaryDataset flattens a monthly summary into tabular rows ordered by
// roll number, then name for students without one.
func SummaryDataset(summary *models.MonthlySummary) *export.Dataset {
	type row struct {
		id    string
		stats models.StudentSummary
	}
	rows := make([]row, 0, len(summary.Students))
	for id, stats := range summary.Students {
		rows = append(rows, row{id: id, stats: stats})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].stats.RollNumber != rows[j].stats.RollNumber {
			return rows[i].stats.RollNumber < rows[j].stats.RollNumber
		}
		return rows[i].stats.StudentName < rows[j].stats.StudentName
	})

	data := &export.Dataset{
		Headers: []string{"Roll No", "Student", "Present", "Absent", "Percentage"},
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Roll No":    r.stats.RollNumber,
			"Student":    r.stats.StudentName,
			"Present":    fmt.Sprintf("%d", r.stats.TotalPresent),
			"Absent":     fmt.Sprintf("%d", r.stats.TotalAbsent),
			"Percentage": fmt.Sprintf("%.2f", r.stats.Percentage),
		})
	}
	return data
}
