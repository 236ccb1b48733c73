package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/deptdesk-api/internal/models"
)

func newAllotmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAllotmentRepositoryListByFaculty(t *testing.T) {
	db, mock, cleanup := newAllotmentRepoMock(t)
	defer cleanup()
	repo := NewAllotmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "faculty_id", "subject_id", "batch_id", "academic_year", "created_at", "faculty_name", "subject_name", "subject_code", "batch_name"}).
		AddRow("al-1", "fac-1", "sub-1", "batch-1", "2024-25", now, "Dr. Rao", "Algorithms", "CS301", "CS 2024")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.id, a.faculty_id")).
		WithArgs("fac-1").
		WillReturnRows(rows)

	allotments, err := repo.ListByFaculty(context.Background(), "fac-1")
	require.NoError(t, err)
	require.Len(t, allotments, 1)
	assert.Equal(t, "CS301", allotments[0].SubjectCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepositoryFindExistingNotFound(t *testing.T) {
	db, mock, cleanup := newAllotmentRepoMock(t)
	defer cleanup()
	repo := NewAllotmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, faculty_id, subject_id, batch_id, academic_year, created_at FROM subject_allotments")).
		WithArgs("sub-1", "batch-1", "2024-25").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindExisting(context.Background(), "sub-1", "batch-1", "2024-25")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllotmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAllotmentRepoMock(t)
	defer cleanup()
	repo := NewAllotmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_allotments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	allotment := &models.SubjectAllotment{
		FacultyID:    "fac-1",
		SubjectID:    "sub-1",
		BatchID:      "batch-1",
		AcademicYear: "2024-25",
	}
	require.NoError(t, repo.Create(context.Background(), allotment))
	assert.NotEmpty(t, allotment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
