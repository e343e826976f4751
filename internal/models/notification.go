package models

import "time"

// NotificationType identifies the logical event behind a notification.
type NotificationType string

const (
	NotificationAbsent            NotificationType = "absent_notification"
	NotificationConsecutiveAbsent NotificationType = "consecutive_absent_alert"
	NotificationLowAttendance     NotificationType = "low_attendance"
)

// NotificationStatus records the delivery outcome.
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// NotificationLog is an append-only delivery record. Existence of a row for
// (type, student, date) doubles as the dedup guard for streak alerts.
type NotificationLog struct {
	ID              string             `db:"id" json:"id"`
	SchoolID        string             `db:"school_id" json:"school_id"`
	Type            NotificationType   `db:"type" json:"type"`
	StudentID       string             `db:"student_id" json:"student_id"`
	ParentID        string             `db:"parent_id" json:"parent_id"`
	ClassSectionID  string             `db:"class_section_id" json:"class_section_id"`
	Date            string             `db:"date" json:"date"`
	ConsecutiveDays *int               `db:"consecutive_days" json:"consecutive_days,omitempty"`
	Status          NotificationStatus `db:"status" json:"status"`
	Error           *string            `db:"error" json:"error,omitempty"`
	SentAt          time.Time          `db:"sent_at" json:"sent_at"`
}

// Notification is a pending parent notification before dispatch.
type Notification struct {
	Type            NotificationType
	StudentID       string
	ParentID        string
	ClassSectionID  string
	Date            string
	ConsecutiveDays *int
	Token           string
	Title           string
	Body            string
	Data            map[string]string
	HighPriority    bool
}
