package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
	"github.com/shikshalink/attendance-api/pkg/push"
)

type notificationLogAppender interface {
	Append(ctx context.Context, entry *models.NotificationLog) error
}

// NotifyService wraps the push-delivery primitive with outcome logging.
// It never retries; retry policy belongs to whoever re-triggers the
// surrounding job.
type NotifyService struct {
	sender  push.Sender
	logRepo notificationLogAppender
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotifyService constructs the dispatcher.
func NewNotifyService(sender push.Sender, logRepo notificationLogAppender, metrics *MetricsService, logger *zap.Logger) *NotifyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyService{sender: sender, logRepo: logRepo, metrics: metrics, logger: logger}
}

// Send attempts delivery and appends a sent or failed log entry. Delivery
// failure is swallowed so a batch caller continues with remaining work; the
// returned flag only reports whether the push went out.
func (s *NotifyService) Send(ctx context.Context, schoolID string, n models.Notification) bool {
	entry := &models.NotificationLog{
		SchoolID:        schoolID,
		Type:            n.Type,
		StudentID:       n.StudentID,
		ParentID:        n.ParentID,
		ClassSectionID:  n.ClassSectionID,
		Date:            n.Date,
		ConsecutiveDays: n.ConsecutiveDays,
		Status:          models.NotificationStatusSent,
	}

	err := s.sender.Send(ctx, push.Message{
		Token:        n.Token,
		Title:        n.Title,
		Body:         n.Body,
		Data:         n.Data,
		HighPriority: n.HighPriority,
	})
	if err != nil {
		msg := err.Error()
		entry.Status = models.NotificationStatusFailed
		entry.Error = &msg
		s.logger.Warn("push delivery failed",
			zap.String("school_id", schoolID),
			zap.String("type", string(n.Type)),
			zap.String("student_id", n.StudentID),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.ObserveNotification(string(n.Type), string(entry.Status))
	}

	if logErr := s.logRepo.Append(ctx, entry); logErr != nil {
		s.logger.Error("failed to append notification log",
			zap.String("school_id", schoolID),
			zap.String("type", string(n.Type)),
			zap.String("student_id", n.StudentID),
			zap.Error(logErr),
		)
	}

	return err == nil
}
