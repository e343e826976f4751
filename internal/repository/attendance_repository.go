package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shikshalink/attendance-api/internal/models"
)

// AttendanceRepository persists day records. The per-student status map is
// stored as one JSONB document per (school, class-section, date).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

type dayRow struct {
	SchoolID       string                  `db:"school_id"`
	ClassSectionID string                  `db:"class_section_id"`
	Date           time.Time               `db:"date"`
	IsHoliday      bool                    `db:"is_holiday"`
	Locked         bool                    `db:"locked"`
	LockedAt       *time.Time              `db:"locked_at"`
	LockedBy       *string                 `db:"locked_by"`
	UnlockedAt     *time.Time              `db:"unlocked_at"`
	UnlockedBy     *string                 `db:"unlocked_by"`
	Students       models.StudentStatusMap `db:"students"`
	CreatedAt      time.Time               `db:"created_at"`
	UpdatedAt      time.Time               `db:"updated_at"`
}

func (r dayRow) record() *models.DayRecord {
	return &models.DayRecord{
		SchoolID:       r.SchoolID,
		ClassSectionID: r.ClassSectionID,
		Meta: models.DayMeta{
			Date:       r.Date,
			IsHoliday:  r.IsHoliday,
			Locked:     r.Locked,
			LockedAt:   r.LockedAt,
			LockedBy:   r.LockedBy,
			UnlockedAt: r.UnlockedAt,
			UnlockedBy: r.UnlockedBy,
		},
		Students:  r.Students,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const dayColumns = `school_id, class_section_id, date, is_holiday, locked, locked_at, locked_by, unlocked_at, unlocked_by, students, created_at, updated_at`

// Get fetches one day record; returns (nil, nil) when absent.
func (r *AttendanceRepository) Get(ctx context.Context, schoolID, classSectionID string, date time.Time) (*models.DayRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_days WHERE school_id = $1 AND class_section_id = $2 AND date = $3`, dayColumns)
	var row dayRow
	if err := r.db.GetContext(ctx, &row, query, schoolID, classSectionID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get day record: %w", err)
	}
	return row.record(), nil
}

// Upsert creates or replaces the student map and holiday flag for a day.
// It returns the prior state (nil on create) alongside the stored record so
// the caller can publish a change event.
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *models.DayRecord) (before, after *models.DayRecord, err error) {
	before, err = r.Get(ctx, rec.SchoolID, rec.ClassSectionID, rec.Meta.Date)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO attendance_days (school_id, class_section_id, date, is_holiday, students, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (school_id, class_section_id, date)
DO UPDATE SET is_holiday = EXCLUDED.is_holiday, students = EXCLUDED.students, updated_at = EXCLUDED.updated_at
RETURNING %s`, dayColumns)

	var row dayRow
	if err := r.db.GetContext(ctx, &row, query, rec.SchoolID, rec.ClassSectionID, rec.Meta.Date, rec.Meta.IsHoliday, rec.Students, now); err != nil {
		return nil, nil, fmt.Errorf("upsert day record: %w", err)
	}
	return before, row.record(), nil
}

// Lock flips the lock flag and stamps provenance. The caller decides
// eligibility; relocking an already-locked record is harmless.
func (r *AttendanceRepository) Lock(ctx context.Context, schoolID, classSectionID string, date time.Time, lockedBy string) error {
	query := `UPDATE attendance_days SET locked = TRUE, locked_at = $4, locked_by = $5, updated_at = $4
WHERE school_id = $1 AND class_section_id = $2 AND date = $3`
	res, err := r.db.ExecContext(ctx, query, schoolID, classSectionID, date, time.Now().UTC(), lockedBy)
	if err != nil {
		return fmt.Errorf("lock day record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Unlock clears the lock flag and stamps who lifted it.
func (r *AttendanceRepository) Unlock(ctx context.Context, schoolID, classSectionID string, date time.Time, unlockedBy string) error {
	query := `UPDATE attendance_days SET locked = FALSE, unlocked_at = $4, unlocked_by = $5, updated_at = $4
WHERE school_id = $1 AND class_section_id = $2 AND date = $3`
	res, err := r.db.ExecContext(ctx, query, schoolID, classSectionID, date, time.Now().UTC(), unlockedBy)
	if err != nil {
		return fmt.Errorf("unlock day record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForDate returns every class-section's record for one date in a school.
func (r *AttendanceRepository) ListForDate(ctx context.Context, schoolID string, date time.Time) ([]models.DayRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_days WHERE school_id = $1 AND date = $2 ORDER BY class_section_id`, dayColumns)
	var rows []dayRow
	if err := r.db.SelectContext(ctx, &rows, query, schoolID, date); err != nil {
		return nil, fmt.Errorf("list day records for date: %w", err)
	}
	records := make([]models.DayRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *row.record())
	}
	return records, nil
}

// ListRange returns one class-section's records with from <= date < to,
// ascending.
func (r *AttendanceRepository) ListRange(ctx context.Context, schoolID, classSectionID string, from, to time.Time) ([]models.DayRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_days
WHERE school_id = $1 AND class_section_id = $2 AND date >= $3 AND date < $4
ORDER BY date`, dayColumns)
	var rows []dayRow
	if err := r.db.SelectContext(ctx, &rows, query, schoolID, classSectionID, from, to); err != nil {
		return nil, fmt.Errorf("list day records in range: %w", err)
	}
	records := make([]models.DayRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *row.record())
	}
	return records, nil
}

// RecentDays returns up to limit records with date <= upTo for one
// class-section, newest first. Holiday records are included; the caller
// skips them while counting streaks.
func (r *AttendanceRepository) RecentDays(ctx context.Context, schoolID, classSectionID string, upTo time.Time, limit int) ([]models.DayRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_days
WHERE school_id = $1 AND class_section_id = $2 AND date <= $3
ORDER BY date DESC LIMIT $4`, dayColumns)
	var rows []dayRow
	if err := r.db.SelectContext(ctx, &rows, query, schoolID, classSectionID, upTo, limit); err != nil {
		return nil, fmt.Errorf("list recent day records: %w", err)
	}
	records := make([]models.DayRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *row.record())
	}
	return records, nil
}

// ClassSections lists the distinct class-sections that have any attendance
// data in a school.
func (r *AttendanceRepository) ClassSections(ctx context.Context, schoolID string) ([]string, error) {
	var ids []string
	query := `SELECT DISTINCT class_section_id FROM attendance_days WHERE school_id = $1 ORDER BY class_section_id`
	if err := r.db.SelectContext(ctx, &ids, query, schoolID); err != nil {
		return nil, fmt.Errorf("list class sections: %w", err)
	}
	return ids, nil
}
