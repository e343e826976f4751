package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshalink/attendance-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func dayRecordColumns() []string {
	return []string{"school_id", "class_section_id", "date", "is_holiday", "locked", "locked_at", "locked_by", "unlocked_at", "unlocked_by", "students", "created_at", "updated_at"}
}

func TestAttendanceRepositoryGet(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(dayRecordColumns()).
		AddRow("school_001", "5_A", date, false, false, nil, nil, nil, nil,
			[]byte(`{"S001":{"studentName":"Asha","rollNumber":"1","status":"A"}}`), time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT school_id, class_section_id, date, is_holiday, locked, locked_at, locked_by, unlocked_at, unlocked_by, students, created_at, updated_at FROM attendance_days WHERE school_id = $1 AND class_section_id = $2 AND date = $3")).
		WithArgs("school_001", "5_A", date).
		WillReturnRows(rows)

	rec, err := repo.Get(context.Background(), "school_001", "5_A", date)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Meta.Locked)
	assert.Equal(t, models.AttendanceStatusAbsent, rec.Students["S001"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryGetMissingIsNil(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT school_id, class_section_id").
		WithArgs("school_001", "5_A", date).
		WillReturnRows(sqlmock.NewRows(dayRecordColumns()))

	rec, err := repo.Get(context.Background(), "school_001", "5_A", date)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertReturnsBefore(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)

	before := sqlmock.NewRows(dayRecordColumns()).
		AddRow("school_001", "5_A", date, false, false, nil, nil, nil, nil,
			[]byte(`{"S001":{"studentName":"Asha","rollNumber":"1","status":"P"}}`), time.Now(), time.Now())
	mock.ExpectQuery("SELECT school_id, class_section_id").
		WithArgs("school_001", "5_A", date).
		WillReturnRows(before)

	after := sqlmock.NewRows(dayRecordColumns()).
		AddRow("school_001", "5_A", date, false, false, nil, nil, nil, nil,
			[]byte(`{"S001":{"studentName":"Asha","rollNumber":"1","status":"A"}}`), time.Now(), time.Now())
	mock.ExpectQuery("INSERT INTO attendance_days").
		WithArgs("school_001", "5_A", date, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(after)

	rec := &models.DayRecord{
		SchoolID:       "school_001",
		ClassSectionID: "5_A",
		Meta:           models.DayMeta{Date: date},
		Students: models.StudentStatusMap{
			"S001": {StudentName: "Asha", RollNumber: "1", Status: models.AttendanceStatusAbsent},
		},
	}
	prev, stored, err := repo.Upsert(context.Background(), rec)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, models.AttendanceStatusPresent, prev.Students["S001"].Status)
	assert.Equal(t, models.AttendanceStatusAbsent, stored.Students["S001"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryLock(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE attendance_days SET locked = TRUE").
		WithArgs("school_001", "5_A", date, sqlmock.AnyArg(), "system_auto_lock").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Lock(context.Background(), "school_001", "5_A", date, "system_auto_lock")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRecentDaysNewestFirst(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	upTo := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(dayRecordColumns()).
		AddRow("school_001", "5_A", upTo, false, false, nil, nil, nil, nil, []byte(`{}`), time.Now(), time.Now()).
		AddRow("school_001", "5_A", upTo.AddDate(0, 0, -1), false, true, nil, nil, nil, nil, []byte(`{}`), time.Now(), time.Now())
	mock.ExpectQuery("ORDER BY date DESC LIMIT").
		WithArgs("school_001", "5_A", upTo, 5).
		WillReturnRows(rows)

	records, err := repo.RecentDays(context.Background(), "school_001", "5_A", upTo, 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Meta.Date.After(records[1].Meta.Date))
	assert.NoError(t, mock.ExpectationsWereMet())
}
