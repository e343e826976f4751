package push

import (
	"context"

	"go.uber.org/zap"
)

// LogSender records messages instead of delivering them. Used when no FCM
// project is configured, typically local development.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs the sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("push (log only)",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Bool("high_priority", msg.HighPriority),
	)
	return nil
}
