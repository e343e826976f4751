package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
)

type summaryReader interface {
	ListForMonth(ctx context.Context, schoolID, month string) ([]models.MonthlySummary, error)
}

type recipientResolver interface {
	Resolve(ctx context.Context, schoolID, studentID string) (*Recipient, error)
}

type notificationSender interface {
	Send(ctx context.Context, schoolID string, n models.Notification) bool
}

// AlertService runs the daily low-attendance check against the current
// month-to-date summaries. No dedup: a student staying below the floor is
// re-alerted on every run.
type AlertService struct {
	schools    schoolLister
	summaries  summaryReader
	recipients recipientResolver
	notify     notificationSender
	floor      float64
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewAlertService constructs the service. floor is the percentage below
// which parents are alerted.
func NewAlertService(schools schoolLister, summaries summaryReader, recipients recipientResolver, notify notificationSender, floor float64, loc *time.Location, logger *zap.Logger) *AlertService {
	if floor <= 0 {
		floor = 75
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{
		schools:    schools,
		summaries:  summaries,
		recipients: recipients,
		notify:     notify,
		floor:      floor,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// RunLowAttendanceCheck alerts parents of every student whose current-month
// percentage is below the floor. Class-sections without a current-month
// summary and students with broken parent links are skipped silently;
// delivery failures never abort the loop.
func (s *AlertService) RunLowAttendanceCheck(ctx context.Context) error {
	now := s.now().In(s.loc)
	monthKey := now.Format(models.MonthLayout)
	dateKey := now.Format(models.DateLayout)

	s.logger.Info("low attendance check starting", zap.String("month", monthKey))

	schools, err := s.schools.ListSchools(ctx)
	if err != nil {
		return err
	}

	alerted := 0
	for _, school := range schools {
		summaries, err := s.summaries.ListForMonth(ctx, school.ID, monthKey)
		if err != nil {
			return err
		}

		for _, summary := range summaries {
			for studentID, stats := range summary.Students {
				if stats.Percentage >= s.floor {
					continue
				}

				recipient, err := s.recipients.Resolve(ctx, school.ID, studentID)
				if err != nil {
					return err
				}
				if recipient == nil {
					continue
				}

				s.notify.Send(ctx, school.ID, models.Notification{
					Type:           models.NotificationLowAttendance,
					StudentID:      studentID,
					ParentID:       recipient.ParentID,
					ClassSectionID: summary.ClassSectionID,
					Date:           dateKey,
					Token:          recipient.Token,
					Title:          "Low Attendance Alert",
					Body:           fmt.Sprintf("%s's attendance is %.1f%% this month", stats.StudentName, stats.Percentage),
					Data: map[string]string{
						"type":       string(models.NotificationLowAttendance),
						"studentId":  studentID,
						"percentage": fmt.Sprintf("%.2f", stats.Percentage),
					},
				})
				alerted++
			}
		}
	}

	s.logger.Info("low attendance check completed", zap.String("month", monthKey), zap.Int("alerted", alerted))
	return nil
}
