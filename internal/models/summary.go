package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StudentSummary is one student's aggregate for a month.
type StudentSummary struct {
	TotalPresent int     `json:"totalPresent"`
	TotalAbsent  int     `json:"totalAbsent"`
	Percentage   float64 `json:"percentage"`
	StudentName  string  `json:"studentName"`
	RollNumber   string  `json:"rollNumber"`
}

// SummaryMap is the studentId -> summary document stored as JSONB.
type SummaryMap map[string]StudentSummary

// Value implements driver.Valuer.
func (m SummaryMap) Value() (driver.Value, error) {
	if m == nil {
		m = SummaryMap{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *SummaryMap) Scan(src interface{}) error {
	if src == nil {
		*m = SummaryMap{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unexpected summary map type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// MonthlySummary is the derived per-class-section aggregate for one month.
// It is always fully recomputed and overwritten, never merged.
type MonthlySummary struct {
	SchoolID       string     `db:"school_id" json:"school_id"`
	ClassSectionID string     `db:"class_section_id" json:"class_section_id"`
	Month          string     `db:"month" json:"month"`
	Students       SummaryMap `db:"students" json:"students"`
	GeneratedAt    time.Time  `db:"generated_at" json:"generated_at"`
}
