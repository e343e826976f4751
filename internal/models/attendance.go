package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttendanceStatus is the per-student status stored in a day record.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "P"
	AttendanceStatusAbsent  AttendanceStatus = "A"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// DateLayout is the canonical calendar-date key format.
const DateLayout = "2006-01-02"

// MonthLayout is the canonical month key format.
const MonthLayout = "2006-01"

// StudentMark is one student's entry inside a day record.
type StudentMark struct {
	StudentName string           `json:"studentName"`
	RollNumber  string           `json:"rollNumber"`
	Status      AttendanceStatus `json:"status"`
}

// StudentStatusMap is the studentId -> mark document stored as JSONB.
type StudentStatusMap map[string]StudentMark

// Value implements driver.Valuer.
func (m StudentStatusMap) Value() (driver.Value, error) {
	if m == nil {
		m = StudentStatusMap{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *StudentStatusMap) Scan(src interface{}) error {
	if src == nil {
		*m = StudentStatusMap{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unexpected student map type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// DayMeta holds the lock lifecycle for a day record. Locked and IsHoliday
// are required fields with explicit false defaults; there is no
// absent-vs-false ambiguity.
type DayMeta struct {
	Date       time.Time  `db:"date" json:"date"`
	IsHoliday  bool       `db:"is_holiday" json:"isHoliday"`
	Locked     bool       `db:"locked" json:"locked"`
	LockedAt   *time.Time `db:"locked_at" json:"lockedAt,omitempty"`
	LockedBy   *string    `db:"locked_by" json:"lockedBy,omitempty"`
	UnlockedAt *time.Time `db:"unlocked_at" json:"unlockedAt,omitempty"`
	UnlockedBy *string    `db:"unlocked_by" json:"unlockedBy,omitempty"`
}

// DayRecord is one class-section's attendance for one calendar date,
// scoped to a school.
type DayRecord struct {
	SchoolID       string           `db:"school_id" json:"school_id"`
	ClassSectionID string           `db:"class_section_id" json:"class_section_id"`
	Meta           DayMeta          `json:"meta"`
	Students       StudentStatusMap `db:"students" json:"students"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// DateKey returns the record's date formatted as its document key.
func (d *DayRecord) DateKey() string {
	return d.Meta.Date.Format(DateLayout)
}

// LockResult summarises one daily-lock run.
type LockResult struct {
	Date    string `json:"date"`
	Locked  int    `json:"locked"`
	Skipped int    `json:"skipped"`
}
