package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
)

type summaryDaysStub struct {
	classSections []string
	days          []models.DayRecord
	listedRanges  [][2]time.Time
}

func (s *summaryDaysStub) ClassSections(ctx context.Context, schoolID string) ([]string, error) {
	return s.classSections, nil
}

func (s *summaryDaysStub) ListRange(ctx context.Context, schoolID, classSectionID string, from, to time.Time) ([]models.DayRecord, error) {
	s.listedRanges = append(s.listedRanges, [2]time.Time{from, to})
	return s.days, nil
}

type summaryWriterStub struct {
	saved []*models.MonthlySummary
}

func (s *summaryWriterStub) Save(ctx context.Context, summary *models.MonthlySummary) error {
	s.saved = append(s.saved, summary)
	return nil
}

func dayWith(status models.AttendanceStatus, holiday bool) models.DayRecord {
	return models.DayRecord{
		Meta: models.DayMeta{IsHoliday: holiday},
		Students: models.StudentStatusMap{
			"S001": {StudentName: "Asha", RollNumber: "1", Status: status},
		},
	}
}

func TestBuildMonthlySummaryCounts(t *testing.T) {
	var days []models.DayRecord
	for i := 0; i < 20; i++ {
		days = append(days, dayWith(models.AttendanceStatusPresent, false))
	}
	for i := 0; i < 5; i++ {
		days = append(days, dayWith(models.AttendanceStatusAbsent, false))
	}

	result := BuildMonthlySummary(days)

	require.Contains(t, result, "S001")
	assert.Equal(t, 20, result["S001"].TotalPresent)
	assert.Equal(t, 5, result["S001"].TotalAbsent)
	assert.Equal(t, 80.0, result["S001"].Percentage)
	assert.Equal(t, "Asha", result["S001"].StudentName)
	assert.Equal(t, "1", result["S001"].RollNumber)
}

func TestBuildMonthlySummarySkipsHolidays(t *testing.T) {
	days := []models.DayRecord{
		dayWith(models.AttendanceStatusPresent, false),
		dayWith(models.AttendanceStatusAbsent, true),
	}

	result := BuildMonthlySummary(days)

	assert.Equal(t, 1, result["S001"].TotalPresent)
	assert.Equal(t, 0, result["S001"].TotalAbsent)
	assert.Equal(t, 100.0, result["S001"].Percentage)
}

func TestBuildMonthlySummaryRoundsPercentage(t *testing.T) {
	days := []models.DayRecord{
		dayWith(models.AttendanceStatusPresent, false),
		dayWith(models.AttendanceStatusPresent, false),
		dayWith(models.AttendanceStatusAbsent, false),
	}

	// 2/3 rounds to 66.67
	assert.Equal(t, 66.67, BuildMonthlySummary(days)["S001"].Percentage)
}

func TestBuildMonthlySummaryEmptyDays(t *testing.T) {
	assert.Empty(t, BuildMonthlySummary(nil))
}

func TestGenerateForMonthSavesEmptyMap(t *testing.T) {
	days := &summaryDaysStub{classSections: []string{"5-A"}}
	writer := &summaryWriterStub{}
	svc := NewSummaryService(&schoolsStub{schools: []models.School{{ID: "SCH1"}}}, days, writer, time.UTC, zap.NewNop())

	monthStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.GenerateForMonth(context.Background(), monthStart))

	require.Len(t, writer.saved, 1)
	saved := writer.saved[0]
	assert.Equal(t, "SCH1", saved.SchoolID)
	assert.Equal(t, "5-A", saved.ClassSectionID)
	assert.Equal(t, "2026-02", saved.Month)
	assert.NotNil(t, saved.Students)
	assert.Empty(t, saved.Students)
}

func TestRunMonthlySummaryTargetsPreviousMonth(t *testing.T) {
	days := &summaryDaysStub{classSections: []string{"5-A"}}
	writer := &summaryWriterStub{}
	svc := NewSummaryService(&schoolsStub{schools: []models.School{{ID: "SCH1"}}}, days, writer, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.RunMonthlySummary(context.Background()))

	require.Len(t, writer.saved, 1)
	assert.Equal(t, "2026-02", writer.saved[0].Month)
	require.Len(t, days.listedRanges, 1)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), days.listedRanges[0][0])
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), days.listedRanges[0][1])
}
