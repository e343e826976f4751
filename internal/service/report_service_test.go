package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
)

type summaryGetterStub struct {
	summary *models.MonthlySummary
}

func (s *summaryGetterStub) Get(ctx context.Context, schoolID, classSectionID, month string) (*models.MonthlySummary, error) {
	return s.summary, nil
}

func sampleSummary() *models.MonthlySummary {
	return &models.MonthlySummary{
		SchoolID:       "SCH1",
		ClassSectionID: "5-A",
		Month:          "2026-02",
		Students: models.SummaryMap{
			"S002": {StudentName: "Vikram", RollNumber: "2", TotalPresent: 18, TotalAbsent: 2, Percentage: 90},
			"S001": {StudentName: "Asha", RollNumber: "1", TotalPresent: 20, TotalAbsent: 0, Percentage: 100},
		},
	}
}

func TestSummaryDatasetOrdersByRoll(t *testing.T) {
	data := SummaryDataset(sampleSummary())

	require.Len(t, data.Rows, 2)
	assert.Equal(t, "Asha", data.Rows[0]["Student"])
	assert.Equal(t, "Vikram", data.Rows[1]["Student"])
	assert.Equal(t, "90.00", data.Rows[1]["Percentage"])
}

func TestMonthlySummaryCSV(t *testing.T) {
	svc := NewReportService(&summaryGetterStub{summary: sampleSummary()}, zap.NewNop())

	payload, err := svc.MonthlySummaryCSV(context.Background(), "SCH1", "5-A", "2026-02")
	require.NoError(t, err)

	normalized := strings.ReplaceAll(string(payload), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(normalized), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Roll No,Student,Present,Absent,Percentage", lines[0])
	assert.Equal(t, "1,Asha,20,0,100.00", lines[1])
}

func TestMonthlySummaryPDFProducesDocument(t *testing.T) {
	svc := NewReportService(&summaryGetterStub{summary: sampleSummary()}, zap.NewNop())

	payload, err := svc.MonthlySummaryPDF(context.Background(), "SCH1", "5-A", "2026-02")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportMissingSummaryIsNotFound(t *testing.T) {
	svc := NewReportService(&summaryGetterStub{}, zap.NewNop())

	_, err := svc.MonthlySummaryCSV(context.Background(), "SCH1", "5-A", "2026-02")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
