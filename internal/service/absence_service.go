package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
	"github.com/shikshalink/attendance-api/internal/watch"
)

type recentDayLister interface {
	RecentDays(ctx context.Context, schoolID, classSectionID string, upTo time.Time, limit int) ([]models.DayRecord, error)
}

type notificationLogChecker interface {
	Exists(ctx context.Context, schoolID string, typ models.NotificationType, studentID, date string) (bool, error)
}

// AbsenceService reacts to day-record writes: one notification per newly
// absent student, plus a deduplicated streak alert once absences run for
// the configured number of consecutive school days.
type AbsenceService struct {
	days       recentDayLister
	logs       notificationLogChecker
	recipients recipientResolver
	notify     notificationSender
	window     int
	threshold  int
	logger     *zap.Logger
}

// NewAbsenceService constructs the service. window is how many recent day
// records to inspect; threshold is the streak length that triggers an alert.
func NewAbsenceService(days recentDayLister, logs notificationLogChecker, recipients recipientResolver, notify notificationSender, window, threshold int, logger *zap.Logger) *AbsenceService {
	if window <= 0 {
		window = 5
	}
	if threshold <= 0 {
		threshold = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{
		days:       days,
		logs:       logs,
		recipients: recipients,
		notify:     notify,
		window:     window,
		threshold:  threshold,
		logger:     logger,
	}
}

// OnDayRecordWrite is the watch handler entry point. Holiday records never
// produce notifications. The streak scan runs on every non-holiday write,
// not just when an absence is new, so an alert that was soft-skipped on an
// earlier write still fires on a later re-save; the notification log is
// the only dedup.
func (s *AbsenceService) OnDayRecordWrite(ctx context.Context, ev watch.Event) error {
	if ev.After == nil || ev.After.Meta.IsHoliday {
		return nil
	}

	if newlyAbsent := NewlyAbsent(ev.Before, ev.After); len(newlyAbsent) > 0 {
		s.handleNewlyAbsent(ctx, ev, newlyAbsent)
	}
	s.handleConsecutiveAbsents(ctx, ev)
	return nil
}

// NewlyAbsent returns the IDs of students marked absent in after that were
// not absent in before. before nil means the record was just created, so
// every absent student is new.
func NewlyAbsent(before, after *models.DayRecord) []string {
	var ids []string
	for id, mark := range after.Students {
		if mark.Status != models.AttendanceStatusAbsent {
			continue
		}
		if before != nil {
			if prev, ok := before.Students[id]; ok && prev.Status == models.AttendanceStatusAbsent {
				continue
			}
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *AbsenceService) handleNewlyAbsent(ctx context.Context, ev watch.Event, studentIDs []string) {
	date, err := time.Parse(models.DateLayout, ev.Date)
	if err != nil {
		s.logger.Error("unparseable event date", zap.String("date", ev.Date), zap.Error(err))
		return
	}
	formatted := date.Format("02 Jan 2006")

	for _, studentID := range studentIDs {
		recipient, err := s.recipients.Resolve(ctx, ev.SchoolID, studentID)
		if err != nil {
			s.logger.Error("recipient lookup failed",
				zap.String("school_id", ev.SchoolID),
				zap.String("student_id", studentID),
				zap.Error(err),
			)
			continue
		}
		if recipient == nil {
			continue
		}

		s.notify.Send(ctx, ev.SchoolID, models.Notification{
			Type:           models.NotificationAbsent,
			StudentID:      studentID,
			ParentID:       recipient.ParentID,
			ClassSectionID: ev.ClassSectionID,
			Date:           ev.Date,
			Token:          recipient.Token,
			Title:          "Attendance Alert - Absent",
			Body:           fmt.Sprintf("%s was marked absent on %s", recipient.StudentName, formatted),
			Data: map[string]string{
				"type":      string(models.NotificationAbsent),
				"studentId": studentID,
				"date":      ev.Date,
			},
		})
	}
}

func (s *AbsenceService) handleConsecutiveAbsents(ctx context.Context, ev watch.Event) {
	date, err := time.Parse(models.DateLayout, ev.Date)
	if err != nil {
		return
	}

	days, err := s.days.RecentDays(ctx, ev.SchoolID, ev.ClassSectionID, date, s.window)
	if err != nil {
		s.logger.Error("recent day lookup failed",
			zap.String("school_id", ev.SchoolID),
			zap.String("class_section_id", ev.ClassSectionID),
			zap.Error(err),
		)
		return
	}

	for studentID, count := range CountStreaks(days) {
		if count < s.threshold {
			continue
		}

		already, err := s.logs.Exists(ctx, ev.SchoolID, models.NotificationConsecutiveAbsent, studentID, ev.Date)
		if err != nil {
			s.logger.Error("dedup lookup failed",
				zap.String("student_id", studentID),
				zap.Error(err),
			)
			continue
		}
		if already {
			continue
		}

		recipient, err := s.recipients.Resolve(ctx, ev.SchoolID, studentID)
		if err != nil || recipient == nil {
			continue
		}

		streak := count
		s.notify.Send(ctx, ev.SchoolID, models.Notification{
			Type:            models.NotificationConsecutiveAbsent,
			StudentID:       studentID,
			ParentID:        recipient.ParentID,
			ClassSectionID:  ev.ClassSectionID,
			Date:            ev.Date,
			ConsecutiveDays: &streak,
			Token:           recipient.Token,
			Title:           "Consecutive Absence Alert",
			Body:            fmt.Sprintf("%s has been absent for %d consecutive days. Please contact the school.", recipient.StudentName, count),
			Data: map[string]string{
				"type":      string(models.NotificationConsecutiveAbsent),
				"studentId": studentID,
				"days":      fmt.Sprintf("%d", count),
			},
			HighPriority: true,
		})
	}
}

// CountStreaks counts, per student, the run of absences across the given
// day records ordered newest first. Holidays and days the student has no
// mark for are skipped without breaking a streak; the count stops at the
// first explicit non-absent status.
func CountStreaks(days []models.DayRecord) map[string]int {
	counts := make(map[string]int)
	broken := make(map[string]bool)

	for _, day := range days {
		if day.Meta.IsHoliday {
			continue
		}
		for id, mark := range day.Students {
			if broken[id] {
				continue
			}
			if mark.Status == models.AttendanceStatusAbsent {
				counts[id]++
			} else {
				broken[id] = true
			}
		}
	}

	return counts
}
