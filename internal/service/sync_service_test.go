package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/models"
)

// syncRosterStub keeps roster state in maps; transactions come from a
// sqlmock database so the allocate-and-insert path runs against real tx
// plumbing.
type syncRosterStub struct {
	db       *sqlx.DB
	teachers map[string]*models.Teacher
	parents  map[string]*models.Parent
	students map[string]*models.Student
	updated  []string
}

func newSyncRosterStub(t *testing.T) (*syncRosterStub, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	return &syncRosterStub{
		db:       sqlx.NewDb(rawDB, "sqlmock"),
		teachers: map[string]*models.Teacher{},
		parents:  map[string]*models.Parent{},
		students: map[string]*models.Student{},
	}, mock
}

func (s *syncRosterStub) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.Beginx()
}

func (s *syncRosterStub) FindTeacherByEmail(ctx context.Context, schoolID, email string) (*models.Teacher, error) {
	return s.teachers[email], nil
}

func (s *syncRosterStub) FindParentByPhone(ctx context.Context, schoolID, phone string) (*models.Parent, error) {
	if phone == "" {
		return nil, nil
	}
	for _, p := range s.parents {
		if p.FatherPhone == phone || p.MotherPhone == phone || p.GuardianPhone == phone {
			return p, nil
		}
	}
	return nil, nil
}

func (s *syncRosterStub) FindStudentByAdmission(ctx context.Context, schoolID, admissionNumber string) (*models.Student, error) {
	return s.students[admissionNumber], nil
}

func (s *syncRosterStub) InsertTeacherTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	s.teachers[teacher.Email] = teacher
	return nil
}

func (s *syncRosterStub) InsertParentTx(ctx context.Context, tx *sqlx.Tx, parent *models.Parent) error {
	s.parents[parent.ParentID] = parent
	return nil
}

func (s *syncRosterStub) InsertStudentTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	s.students[student.AdmissionNumber] = student
	return nil
}

func (s *syncRosterStub) UpdateTeacher(ctx context.Context, teacher *models.Teacher) error {
	s.updated = append(s.updated, "teacher:"+teacher.TeacherID)
	return nil
}

func (s *syncRosterStub) UpdateParent(ctx context.Context, parent *models.Parent) error {
	s.updated = append(s.updated, "parent:"+parent.ParentID)
	return nil
}

func (s *syncRosterStub) UpdateStudent(ctx context.Context, student *models.Student) error {
	s.updated = append(s.updated, "student:"+student.StudentID)
	return nil
}

type allocatorStub struct {
	next map[string]int
}

func (a *allocatorStub) Allocate(ctx context.Context, tx *sqlx.Tx, schoolID, prefix string) (string, error) {
	if a.next == nil {
		a.next = map[string]int{}
	}
	a.next[prefix]++
	return fmt.Sprintf("%s%03d", prefix, a.next[prefix]), nil
}

func TestSyncCreatesEverythingAndLinksParent(t *testing.T) {
	roster, mock := newSyncRosterStub(t)
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	svc := NewSyncService(roster, &allocatorStub{}, zap.NewNop())

	result, err := svc.Run(context.Background(), "SCH1", &SyncRequest{
		Parents: []SyncParentInput{{FatherName: "Ravi", FatherPhone: "9000000001"}},
		Teachers: []SyncTeacherInput{
			{Name: "Meera", Email: "meera@school.example", CanTakeAttendance: true},
		},
		Students: []SyncStudentInput{
			{AdmissionNumber: "ADM-9", Name: "Asha", Class: "5", Section: "A", ParentPhone: "9000000001"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, SyncCounts{Created: 1}, result.Parents)
	assert.Equal(t, SyncCounts{Created: 1}, result.Teachers)
	assert.Equal(t, SyncCounts{Created: 1}, result.Students)

	student := roster.students["ADM-9"]
	require.NotNil(t, student)
	assert.Equal(t, "S001", student.StudentID)
	require.NotNil(t, student.ParentID)
	assert.Equal(t, "P001", *student.ParentID)
	assert.Equal(t, "T001", roster.teachers["meera@school.example"].TeacherID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncUpdatesExistingByMatchKey(t *testing.T) {
	roster, mock := newSyncRosterStub(t)
	roster.teachers["meera@school.example"] = &models.Teacher{TeacherID: "T007", Email: "meera@school.example"}
	roster.students["ADM-9"] = &models.Student{StudentID: "S004", AdmissionNumber: "ADM-9"}
	roster.parents["P002"] = &models.Parent{ParentID: "P002", MotherPhone: "9000000002"}
	svc := NewSyncService(roster, &allocatorStub{}, zap.NewNop())

	result, err := svc.Run(context.Background(), "SCH1", &SyncRequest{
		Parents:  []SyncParentInput{{MotherName: "Lata", MotherPhone: "9000000002"}},
		Teachers: []SyncTeacherInput{{Name: "Meera N", Email: "meera@school.example"}},
		Students: []SyncStudentInput{{AdmissionNumber: "ADM-9", Name: "Asha", Class: "6", Section: "A"}},
	})
	require.NoError(t, err)

	assert.Equal(t, SyncCounts{Updated: 1}, result.Parents)
	assert.Equal(t, SyncCounts{Updated: 1}, result.Teachers)
	assert.Equal(t, SyncCounts{Updated: 1}, result.Students)
	assert.ElementsMatch(t, []string{"parent:P002", "teacher:T007", "student:S004"}, roster.updated)
	assert.Equal(t, "6", roster.students["ADM-9"].Class)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncStudentWithUnknownParentPhoneStaysUnlinked(t *testing.T) {
	roster, mock := newSyncRosterStub(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	svc := NewSyncService(roster, &allocatorStub{}, zap.NewNop())

	_, err := svc.Run(context.Background(), "SCH1", &SyncRequest{
		Students: []SyncStudentInput{
			{AdmissionNumber: "ADM-1", Name: "Asha", Class: "5", Section: "A", ParentPhone: "404"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, roster.students["ADM-1"])
	assert.Nil(t, roster.students["ADM-1"].ParentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncSkipsRowsWithoutMatchKeys(t *testing.T) {
	roster, mock := newSyncRosterStub(t)
	svc := NewSyncService(roster, &allocatorStub{}, zap.NewNop())

	req := &SyncRequest{
		Parents:  []SyncParentInput{{FatherName: "Ravi"}},
		Teachers: []SyncTeacherInput{{Name: "Meera"}},
		Students: []SyncStudentInput{{Name: "Asha", Class: "5", Section: "A"}},
	}

	// Two identical runs: keyless rows are dropped both times, so nothing
	// is ever inserted and nothing accumulates.
	for i := 0; i < 2; i++ {
		result, err := svc.Run(context.Background(), "SCH1", req)
		require.NoError(t, err)
		assert.Equal(t, SyncCounts{Skipped: 1}, result.Parents)
		assert.Equal(t, SyncCounts{Skipped: 1}, result.Teachers)
		assert.Equal(t, SyncCounts{Skipped: 1}, result.Students)
	}

	assert.Empty(t, roster.parents)
	assert.Empty(t, roster.teachers)
	assert.Empty(t, roster.students)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncUpdatesActiveFlag(t *testing.T) {
	roster, mock := newSyncRosterStub(t)
	roster.parents["P002"] = &models.Parent{ParentID: "P002", MotherPhone: "9000000002", Active: true}
	roster.teachers["meera@school.example"] = &models.Teacher{TeacherID: "T007", Email: "meera@school.example", Active: true}
	svc := NewSyncService(roster, &allocatorStub{}, zap.NewNop())

	inactive := false
	_, err := svc.Run(context.Background(), "SCH1", &SyncRequest{
		Parents:  []SyncParentInput{{MotherPhone: "9000000002", Active: &inactive}},
		Teachers: []SyncTeacherInput{{Name: "Meera", Email: "meera@school.example"}},
	})
	require.NoError(t, err)

	assert.False(t, roster.parents["P002"].Active)
	// Omitting the flag leaves the stored value alone.
	assert.True(t, roster.teachers["meera@school.example"].Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncRequiresSchoolID(t *testing.T) {
	roster, _ := newSyncRosterStub(t)
	svc := NewSyncService(roster, &allocatorStub{}, zap.NewNop())

	_, err := svc.Run(context.Background(), "", &SyncRequest{})
	require.Error(t, err)
}
