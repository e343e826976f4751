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

// RosterRepository reads and upserts master data: schools, students,
// parents, teachers. Inserts that need a sequential ID run inside a caller
// transaction (see CounterRepository.Allocate).
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// BeginTx starts a transaction for allocate-and-create flows.
func (r *RosterRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin roster tx: %w", err)
	}
	return tx, nil
}

// ListSchools returns all active schools.
func (r *RosterRepository) ListSchools(ctx context.Context) ([]models.School, error) {
	var schools []models.School
	query := `SELECT id, name, active, created_at FROM schools WHERE active ORDER BY id`
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// GetStudent fetches one student; (nil, nil) when absent.
func (r *RosterRepository) GetStudent(ctx context.Context, schoolID, studentID string) (*models.Student, error) {
	var student models.Student
	query := `SELECT * FROM students WHERE school_id = $1 AND student_id = $2`
	if err := r.db.GetContext(ctx, &student, query, schoolID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// GetParent fetches one parent; (nil, nil) when absent.
func (r *RosterRepository) GetParent(ctx context.Context, schoolID, parentID string) (*models.Parent, error) {
	var parent models.Parent
	query := `SELECT * FROM parents WHERE school_id = $1 AND parent_id = $2`
	if err := r.db.GetContext(ctx, &parent, query, schoolID, parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get parent: %w", err)
	}
	return &parent, nil
}

// FindStudentByAdmission matches a student by admission number.
func (r *RosterRepository) FindStudentByAdmission(ctx context.Context, schoolID, admissionNumber string) (*models.Student, error) {
	var student models.Student
	query := `SELECT * FROM students WHERE school_id = $1 AND admission_number = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &student, query, schoolID, admissionNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student by admission: %w", err)
	}
	return &student, nil
}

// FindParentByPhone matches a parent by any of the three contact numbers.
func (r *RosterRepository) FindParentByPhone(ctx context.Context, schoolID, phone string) (*models.Parent, error) {
	var parent models.Parent
	query := `SELECT * FROM parents
WHERE school_id = $1 AND (father_phone = $2 OR mother_phone = $2 OR guardian_phone = $2)
LIMIT 1`
	if err := r.db.GetContext(ctx, &parent, query, schoolID, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find parent by phone: %w", err)
	}
	return &parent, nil
}

// FindTeacherByEmail matches a teacher by email.
func (r *RosterRepository) FindTeacherByEmail(ctx context.Context, schoolID, email string) (*models.Teacher, error) {
	var teacher models.Teacher
	query := `SELECT * FROM teachers WHERE school_id = $1 AND email = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &teacher, query, schoolID, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find teacher by email: %w", err)
	}
	return &teacher, nil
}

// InsertStudentTx creates a student inside the allocate-and-create tx.
func (r *RosterRepository) InsertStudentTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	query := `INSERT INTO students (student_id, school_id, admission_number, name, gender, class, section, blood_group, boarding_type, admission_date, academic_year, parent_id, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := tx.ExecContext(ctx, query,
		student.StudentID, student.SchoolID, student.AdmissionNumber, student.Name, student.Gender,
		student.Class, student.Section, student.BloodGroup, student.BoardingType, student.AdmissionDate,
		student.AcademicYear, student.ParentID, student.Active, student.CreatedAt, student.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// UpdateStudent refreshes an existing student's sync-managed fields.
func (r *RosterRepository) UpdateStudent(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	query := `UPDATE students SET name = $3, gender = $4, class = $5, section = $6, blood_group = $7, boarding_type = $8,
admission_date = $9, academic_year = $10, parent_id = $11, active = $12, updated_at = $13
WHERE school_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query,
		student.SchoolID, student.StudentID, student.Name, student.Gender, student.Class, student.Section,
		student.BloodGroup, student.BoardingType, student.AdmissionDate, student.AcademicYear,
		student.ParentID, student.Active, student.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// InsertParentTx creates a parent inside the allocate-and-create tx.
func (r *RosterRepository) InsertParentTx(ctx context.Context, tx *sqlx.Tx, parent *models.Parent) error {
	now := time.Now().UTC()
	parent.CreatedAt = now
	parent.UpdatedAt = now
	query := `INSERT INTO parents (parent_id, school_id, father_name, father_phone, mother_name, mother_phone, guardian_name, guardian_phone, primary_contact, address, fcm_token, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := tx.ExecContext(ctx, query,
		parent.ParentID, parent.SchoolID, parent.FatherName, parent.FatherPhone, parent.MotherName,
		parent.MotherPhone, parent.GuardianName, parent.GuardianPhone, parent.PrimaryContact,
		parent.Address, parent.FCMToken, parent.Active, parent.CreatedAt, parent.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert parent: %w", err)
	}
	return nil
}

// UpdateParent refreshes an existing parent's sync-managed fields. The FCM
// token is owned by the mobile client and left untouched here.
func (r *RosterRepository) UpdateParent(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	query := `UPDATE parents SET father_name = $3, father_phone = $4, mother_name = $5, mother_phone = $6,
guardian_name = $7, guardian_phone = $8, primary_contact = $9, address = $10, active = $11, updated_at = $12
WHERE school_id = $1 AND parent_id = $2`
	if _, err := r.db.ExecContext(ctx, query,
		parent.SchoolID, parent.ParentID, parent.FatherName, parent.FatherPhone, parent.MotherName,
		parent.MotherPhone, parent.GuardianName, parent.GuardianPhone, parent.PrimaryContact,
		parent.Address, parent.Active, parent.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

// InsertTeacherTx creates a teacher inside the allocate-and-create tx.
func (r *RosterRepository) InsertTeacherTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	query := `INSERT INTO teachers (teacher_id, school_id, name, email, phone, can_take_attendance, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, query,
		teacher.TeacherID, teacher.SchoolID, teacher.Name, teacher.Email, teacher.Phone,
		teacher.CanTakeAttendance, teacher.Active, teacher.CreatedAt, teacher.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}
	return nil
}

// UpdateTeacher refreshes an existing teacher's sync-managed fields.
func (r *RosterRepository) UpdateTeacher(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	query := `UPDATE teachers SET name = $3, phone = $4, active = $5, updated_at = $6
WHERE school_id = $1 AND teacher_id = $2`
	if _, err := r.db.ExecContext(ctx, query,
		teacher.SchoolID, teacher.TeacherID, teacher.Name, teacher.Phone, teacher.Active, teacher.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}
