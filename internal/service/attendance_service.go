package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/authz"
	"github.com/shikshalink/attendance-api/internal/models"
	"github.com/shikshalink/attendance-api/internal/watch"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
)

type dayRecordRepository interface {
	Get(ctx context.Context, schoolID, classSectionID string, date time.Time) (*models.DayRecord, error)
	Upsert(ctx context.Context, rec *models.DayRecord) (before, after *models.DayRecord, err error)
	Unlock(ctx context.Context, schoolID, classSectionID string, date time.Time, unlockedBy string) error
}

// AttendanceService owns the day-record write path: marking attendance
// before the daily lock, and the admin unlock callable. Every successful
// write is published to the change dispatcher.
type AttendanceService struct {
	repo       dayRecordRepository
	dispatcher *watch.Dispatcher
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo dayRecordRepository, dispatcher *watch.Dispatcher, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, dispatcher: dispatcher, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// StudentMarkInput is one student's entry in a mark request.
type StudentMarkInput struct {
	StudentName string `json:"studentName" validate:"required"`
	RollNumber  string `json:"rollNumber"`
	Status      string `json:"status" validate:"required,attendance_status"`
}

// MarkDayRequest replaces the student map for one class-section day.
type MarkDayRequest struct {
	Date      string                      `json:"date" validate:"required"`
	IsHoliday bool                        `json:"isHoliday"`
	Students  map[string]StudentMarkInput `json:"students" validate:"dive"`
}

// MarkDay writes the day record unless it is locked, then fires the
// absence watchers synchronously.
func (s *AttendanceService) MarkDay(ctx context.Context, schoolID, classSectionID string, req MarkDayRequest) (*models.DayRecord, error) {
	if schoolID == "" || classSectionID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "schoolId and classSectionId are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	date, err := time.ParseInLocation(models.DateLayout, req.Date, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "date must be YYYY-MM-DD")
	}

	existing, err := s.repo.Get(ctx, schoolID, classSectionID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day record")
	}
	if existing != nil && existing.Meta.Locked {
		return nil, appErrors.Clone(appErrors.ErrLocked, "attendance for this date is locked")
	}

	students := make(models.StudentStatusMap, len(req.Students))
	for studentID, mark := range req.Students {
		students[studentID] = models.StudentMark{
			StudentName: mark.StudentName,
			RollNumber:  mark.RollNumber,
			Status:      models.AttendanceStatus(strings.ToUpper(mark.Status)),
		}
	}

	rec := &models.DayRecord{
		SchoolID:       schoolID,
		ClassSectionID: classSectionID,
		Meta:           models.DayMeta{Date: date, IsHoliday: req.IsHoliday},
		Students:       students,
	}

	before, after, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save day record")
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, watch.Event{
			SchoolID:       schoolID,
			ClassSectionID: classSectionID,
			Date:           req.Date,
			Before:         before,
			After:          after,
		})
	}

	return after, nil
}

// GetDay fetches one day record.
func (s *AttendanceService) GetDay(ctx context.Context, schoolID, classSectionID, dateStr string) (*models.DayRecord, error) {
	date, err := time.ParseInLocation(models.DateLayout, dateStr, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "date must be YYYY-MM-DD")
	}
	rec, err := s.repo.Get(ctx, schoolID, classSectionID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day record")
	}
	if rec == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no attendance record for this date")
	}
	return rec, nil
}

// Unlock lifts the lock on a day record. Requires an admin capability for
// the tenant; records who lifted the lock and when.
func (s *AttendanceService) Unlock(ctx context.Context, claims *models.JWTClaims, schoolID, classSectionID, dateStr string) error {
	if claims == nil {
		return appErrors.ErrUnauthenticated
	}
	if schoolID == "" || classSectionID == "" || dateStr == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "schoolId, classSectionId, and date are required")
	}
	if !authz.Allowed(claims, schoolID, models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "only admins can unlock attendance")
	}

	date, err := time.ParseInLocation(models.DateLayout, dateStr, time.UTC)
	if err != nil {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "date must be YYYY-MM-DD")
	}

	if err := s.repo.Unlock(ctx, schoolID, classSectionID, date, claims.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no attendance record for this date")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlock attendance")
	}

	s.logger.Info("attendance unlocked",
		zap.String("school_id", schoolID),
		zap.String("class_section_id", classSectionID),
		zap.String("date", dateStr),
		zap.String("unlocked_by", claims.UserID),
	)
	return nil
}
