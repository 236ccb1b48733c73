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

	"github.com/campusops/deptdesk-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{
		EntryID:     "e1",
		StudentID:   "stu-1",
		SessionDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Status:      models.AttendancePresent,
		MarkedBy:    "fac-1",
	}
	stored, err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkInsertAtomicFailsOnDuplicate(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (entry_id, student_id, session_date) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a1"))
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (entry_id, student_id, session_date) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	records := []models.AttendanceRecord{
		{EntryID: "e1", StudentID: "stu-1", SessionDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent, MarkedBy: "fac-1"},
		{EntryID: "e1", StudentID: "stu-2", SessionDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), Status: models.AttendanceAbsent, MarkedBy: "fac-1"},
	}
	_, err := repo.BulkInsert(context.Background(), records, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stu-2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkInsertPartialCollectsConflicts(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (entry_id, student_id, session_date) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (entry_id, student_id, session_date) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a2"))
	mock.ExpectCommit()

	records := []models.AttendanceRecord{
		{EntryID: "e1", StudentID: "stu-1", SessionDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent, MarkedBy: "fac-1"},
		{EntryID: "e1", StudentID: "stu-2", SessionDate: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), Status: models.AttendanceLate, MarkedBy: "fac-1"},
	}
	conflicts, err := repo.BulkInsert(context.Background(), records, false)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "stu-1", conflicts[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	status := models.AttendancePresent
	rows := sqlmock.NewRows([]string{"id", "entry_id", "student_id", "session_date", "status", "notes", "marked_by", "created_at", "updated_at"}).
		AddRow("a1", "e1", "stu-1", now, "PRESENT", nil, "fac-1", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entry_id, student_id")).
		WithArgs("e1", "PRESENT").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("e1", "PRESENT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{EntryID: "e1", Status: &status})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySessionReport(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"student_id", "student_name", "status", "notes"}).
		AddRow("stu-1", "Asha Verma", "PRESENT", nil).
		AddRow("stu-2", "Rohit Shah", "ABSENT", "medical leave")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.student_id, u.full_name AS student_name")).
		WithArgs("e1", date).
		WillReturnRows(rows)

	report, err := repo.SessionReport(context.Background(), "e1", date)
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, "Asha Verma", report[0].StudentName)
	assert.Equal(t, "medical leave", *report[1].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
