package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
)

// SystemLockActor is the provenance stamp for scheduler-driven locks.
const SystemLockActor = "system_auto_lock"

type schoolLister interface {
	ListSchools(ctx context.Context) ([]models.School, error)
}

type lockDayRepository interface {
	ListForDate(ctx context.Context, schoolID string, date time.Time) ([]models.DayRecord, error)
	Lock(ctx context.Context, schoolID, classSectionID string, date time.Time, lockedBy string) error
}

// LockService freezes the current day's attendance across all tenants at
// the daily cutoff.
type LockService struct {
	schools schoolLister
	days    lockDayRepository
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewLockService constructs the service. loc is the scheduling time zone.
func NewLockService(schools schoolLister, days lockDayRepository, loc *time.Location, logger *zap.Logger) *LockService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockService{schools: schools, days: days, loc: loc, now: time.Now, logger: logger}
}

// RunDailyLock locks every open, non-holiday day record for today. Already
// locked or holiday records count as skipped; class-sections without a
// record today are simply absent from the listing. Re-running is a no-op
// for records locked the first time.
func (s *LockService) RunDailyLock(ctx context.Context) (*models.LockResult, error) {
	today := dateOnly(s.now().In(s.loc))
	result := &models.LockResult{Date: today.Format(models.DateLayout)}

	s.logger.Info("daily lock starting", zap.String("date", result.Date))

	schools, err := s.schools.ListSchools(ctx)
	if err != nil {
		return nil, err
	}

	for _, school := range schools {
		records, err := s.days.ListForDate(ctx, school.ID, today)
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			if rec.Meta.Locked || rec.Meta.IsHoliday {
				result.Skipped++
				continue
			}
			if err := s.days.Lock(ctx, school.ID, rec.ClassSectionID, today, SystemLockActor); err != nil {
				return nil, err
			}
			result.Locked++
			s.logger.Debug("locked day record",
				zap.String("school_id", school.ID),
				zap.String("class_section_id", rec.ClassSectionID),
				zap.String("date", result.Date),
			)
		}
	}

	s.logger.Info("daily lock completed",
		zap.String("date", result.Date),
		zap.Int("locked", result.Locked),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// dateOnly truncates a timestamp to its calendar date at UTC midnight, the
// normal form for the date column.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
