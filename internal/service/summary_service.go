package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
)

type summaryDayRepository interface {
	ClassSections(ctx context.Context, schoolID string) ([]string, error)
	ListRange(ctx context.Context, schoolID, classSectionID string, from, to time.Time) ([]models.DayRecord, error)
}

type summaryWriter interface {
	Save(ctx context.Context, summary *models.MonthlySummary) error
}

// SummaryService folds a month of day records into per-student monthly
// aggregates. Regeneration fully overwrites the summary document, so
// re-running with unchanged day data is idempotent.
type SummaryService struct {
	schools   schoolLister
	days      summaryDayRepository
	summaries summaryWriter
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewSummaryService constructs the service.
func NewSummaryService(schools schoolLister, days summaryDayRepository, summaries summaryWriter, loc *time.Location, logger *zap.Logger) *SummaryService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{schools: schools, days: days, summaries: summaries, loc: loc, now: time.Now, logger: logger}
}

// RunMonthlySummary generates summaries for the previous calendar month.
func (s *SummaryService) RunMonthlySummary(ctx context.Context) error {
	now := s.now().In(s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return s.GenerateForMonth(ctx, monthStart)
}

// GenerateForMonth recomputes every class-section summary for the month
// beginning at monthStart. A class-section with no day records still gets
// a summary document with an empty student map.
func (s *SummaryService) GenerateForMonth(ctx context.Context, monthStart time.Time) error {
	monthKey := monthStart.Format(models.MonthLayout)
	monthEnd := monthStart.AddDate(0, 1, 0)

	s.logger.Info("monthly summary starting", zap.String("month", monthKey))

	schools, err := s.schools.ListSchools(ctx)
	if err != nil {
		return err
	}

	for _, school := range schools {
		classSections, err := s.days.ClassSections(ctx, school.ID)
		if err != nil {
			return err
		}

		for _, classSectionID := range classSections {
			days, err := s.days.ListRange(ctx, school.ID, classSectionID, monthStart, monthEnd)
			if err != nil {
				return err
			}

			summary := &models.MonthlySummary{
				SchoolID:       school.ID,
				ClassSectionID: classSectionID,
				Month:          monthKey,
				Students:       BuildMonthlySummary(days),
			}
			if err := s.summaries.Save(ctx, summary); err != nil {
				return err
			}

			s.logger.Debug("summary generated",
				zap.String("school_id", school.ID),
				zap.String("class_section_id", classSectionID),
				zap.String("month", monthKey),
				zap.Int("students", len(summary.Students)),
			)
		}
	}

	s.logger.Info("monthly summary completed", zap.String("month", monthKey))
	return nil
}

// BuildMonthlySummary accumulates present/absent counts per student across
// non-holiday days. Students with no recorded non-holiday day are absent
// from the result, not present with 0%.
func BuildMonthlySummary(days []models.DayRecord) models.SummaryMap {
	type tally struct {
		present int
		absent  int
		name    string
		roll    string
	}
	tallies := make(map[string]*tally)

	for _, day := range days {
		if day.Meta.IsHoliday {
			continue
		}
		for studentID, mark := range day.Students {
			t, ok := tallies[studentID]
			if !ok {
				t = &tally{name: mark.StudentName, roll: mark.RollNumber}
				tallies[studentID] = t
			}
			switch mark.Status {
			case models.AttendanceStatusPresent:
				t.present++
			case models.AttendanceStatusAbsent:
				t.absent++
			}
		}
	}

	result := make(models.SummaryMap, len(tallies))
	for studentID, t := range tallies {
		result[studentID] = models.StudentSummary{
			TotalPresent: t.present,
			TotalAbsent:  t.absent,
			Percentage:   attendancePercentage(t.present, t.absent),
			StudentName:  t.name,
			RollNumber:   t.roll,
		}
	}
	return result
}

// attendancePercentage rounds present/(present+absent) to two decimals;
// zero when nothing was recorded.
func attendancePercentage(present, absent int) float64 {
	total := present + absent
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*100*100) / 100
}
