package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRepositoryAllocateFormatsID(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO counters").
		WithArgs("school_001", "S").
		WillReturnRows(sqlmock.NewRows([]string{"last_number"}).AddRow(7))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	id, err := repo.Allocate(context.Background(), tx, "school_001", "S")
	require.NoError(t, err)
	assert.Equal(t, "S007", id)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterRepositoryAllocateRollsBackWithEntity(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO counters").
		WithArgs("school_001", "P").
		WillReturnRows(sqlmock.NewRows([]string{"last_number"}).AddRow(3))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	id, err := repo.Allocate(context.Background(), tx, "school_001", "P")
	require.NoError(t, err)
	assert.Equal(t, "P003", id)

	// Aborting the surrounding transaction discards the increment, so no
	// reserved-but-unused ID is ever observable.
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterRepositoryCurrentDefaultsToZero(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("school_001", "T").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	last, err := repo.Current(context.Background(), "school_001", "T")
	require.NoError(t, err)
	assert.Zero(t, last)
	assert.NoError(t, mock.ExpectationsWereMet())
}
