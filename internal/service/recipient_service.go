package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
)

type recipientRosterRepository interface {
	GetStudent(ctx context.Context, schoolID, studentID string) (*models.Student, error)
	GetParent(ctx context.Context, schoolID, parentID string) (*models.Parent, error)
}

type contactCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Recipient is a resolved notification target.
type Recipient struct {
	StudentName string `json:"student_name"`
	ParentID    string `json:"parent_id"`
	Token       string `json:"token"`
}

// RecipientService resolves studentId -> (parent, push token). The hot path
// during notification fan-out, so results are cached briefly in Redis.
type RecipientService struct {
	roster recipientRosterRepository
	cache  contactCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewRecipientService constructs the resolver.
func NewRecipientService(roster recipientRosterRepository, cache contactCache, ttl time.Duration, logger *zap.Logger) *RecipientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RecipientService{roster: roster, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the notification target for a student or nil when the
// student, parent link, parent record, or token is missing. A broken link
// is a soft skip for the caller, never an error.
func (s *RecipientService) Resolve(ctx context.Context, schoolID, studentID string) (*Recipient, error) {
	key := fmt.Sprintf("contact:%s:%s", schoolID, studentID)
	if s.cache != nil {
		var cached Recipient
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("contact cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	student, err := s.roster.GetStudent(ctx, schoolID, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		s.logger.Debug("student not found", zap.String("school_id", schoolID), zap.String("student_id", studentID))
		return nil, nil
	}
	if student.ParentID == nil || *student.ParentID == "" {
		s.logger.Debug("no parent linked", zap.String("school_id", schoolID), zap.String("student_id", studentID))
		return nil, nil
	}

	parent, err := s.roster.GetParent(ctx, schoolID, *student.ParentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		s.logger.Debug("parent not found", zap.String("school_id", schoolID), zap.String("parent_id", *student.ParentID))
		return nil, nil
	}
	if parent.FCMToken == nil || *parent.FCMToken == "" {
		s.logger.Debug("no fcm token for parent", zap.String("school_id", schoolID), zap.String("parent_id", parent.ParentID))
		return nil, nil
	}

	recipient := &Recipient{
		StudentName: student.Name,
		ParentID:    parent.ParentID,
		Token:       *parent.FCMToken,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, recipient, s.ttl); err != nil {
			s.logger.Warn("contact cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return recipient, nil
}
