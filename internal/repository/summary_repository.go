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

// SummaryRepository persists derived monthly summaries. Writes always
// replace the whole student map; regeneration must be idempotent.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository constructs the repository.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Save overwrites the summary document for (school, class-section, month).
func (r *SummaryRepository) Save(ctx context.Context, summary *models.MonthlySummary) error {
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = time.Now().UTC()
	}
	query := `INSERT INTO attendance_summaries (school_id, class_section_id, month, students, generated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (school_id, class_section_id, month)
DO UPDATE SET students = EXCLUDED.students, generated_at = EXCLUDED.generated_at`
	if _, err := r.db.ExecContext(ctx, query, summary.SchoolID, summary.ClassSectionID, summary.Month, summary.Students, summary.GeneratedAt); err != nil {
		return fmt.Errorf("save monthly summary: %w", err)
	}
	return nil
}

// Get fetches one summary document; returns (nil, nil) when absent.
func (r *SummaryRepository) Get(ctx context.Context, schoolID, classSectionID, month string) (*models.MonthlySummary, error) {
	query := `SELECT school_id, class_section_id, month, students, generated_at
FROM attendance_summaries WHERE school_id = $1 AND class_section_id = $2 AND month = $3`
	var summary models.MonthlySummary
	if err := r.db.GetContext(ctx, &summary, query, schoolID, classSectionID, month); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get monthly summary: %w", err)
	}
	return &summary, nil
}

// ListForMonth returns every class-section summary for a school and month.
func (r *SummaryRepository) ListForMonth(ctx context.Context, schoolID, month string) ([]models.MonthlySummary, error) {
	query := `SELECT school_id, class_section_id, month, students, generated_at
FROM attendance_summaries WHERE school_id = $1 AND month = $2 ORDER BY class_section_id`
	var summaries []models.MonthlySummary
	if err := r.db.SelectContext(ctx, &summaries, query, schoolID, month); err != nil {
		return nil, fmt.Errorf("list monthly summaries: %w", err)
	}
	return summaries, nil
}
