package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shikshalink/attendance-api/internal/models"
)

// NotificationLogRepository appends delivery records and answers the dedup
// existence check. The table is append-only.
type NotificationLogRepository struct {
	db *sqlx.DB
}

// NewNotificationLogRepository constructs the repository.
func NewNotificationLogRepository(db *sqlx.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

// Append inserts one log entry, assigning an ID and timestamp when unset.
func (r *NotificationLogRepository) Append(ctx context.Context, entry *models.NotificationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	query := `INSERT INTO notification_logs (id, school_id, type, student_id, parent_id, class_section_id, date, consecutive_days, status, error, sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SchoolID, entry.Type, entry.StudentID, entry.ParentID,
		entry.ClassSectionID, entry.Date, entry.ConsecutiveDays, entry.Status, entry.Error, entry.SentAt,
	); err != nil {
		return fmt.Errorf("append notification log: %w", err)
	}
	return nil
}

// Exists reports whether any entry was logged for (type, student, date)
// within a school, regardless of delivery status.
func (r *NotificationLogRepository) Exists(ctx context.Context, schoolID string, typ models.NotificationType, studentID, date string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notification_logs
WHERE school_id = $1 AND type = $2 AND student_id = $3 AND date = $4)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, schoolID, typ, studentID, date); err != nil {
		return false, fmt.Errorf("check notification log: %w", err)
	}
	return exists, nil
}
