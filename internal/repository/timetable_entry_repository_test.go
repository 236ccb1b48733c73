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

func newTimetableEntryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func entryDetailMockColumns() []string {
	return []string{"id", "batch_id", "subject_id", "faculty_id", "time_slot_id", "day_of_week", "date", "entry_type", "custom_event_title", "custom_event_color", "created_at", "updated_at", "time_slot_name", "subject_name", "subject_code", "faculty_name", "batch_name"}
}

func TestTimetableEntryRepositoryListByBatch(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(entryDetailMockColumns()).
		AddRow("e1", "batch-1", "sub-1", "fac-1", "slot-1", "FRIDAY", nil, "REGULAR", nil, nil, now, now, "10:00-11:30", "Algorithms", "CS301", "Dr. Rao", "CS 2024").
		AddRow("e2", "batch-1", nil, nil, "slot-2", "MONDAY", nil, "EXTRA", "Guest Lecture", nil, now, now, "14:00-15:00", nil, nil, nil, "CS 2024")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.batch_id")).
		WithArgs("batch-1").
		WillReturnRows(rows)

	entries, err := repo.ListByBatch(context.Background(), "batch-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Algorithms", *entries[0].SubjectName)
	assert.Nil(t, entries[1].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(entryDetailMockColumns()).
		AddRow("e1", "batch-1", "sub-1", "fac-1", "slot-1", "FRIDAY", nil, "REGULAR", nil, nil, now, now, "10:00-11:30", "Algorithms", "CS301", "Dr. Rao", "CS 2024")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.batch_id")).
		WithArgs("batch-1", "fac-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("batch-1", "fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.List(context.Background(), models.TimetableEntryFilter{
		BatchID:   "batch-1",
		FacultyID: "fac-1",
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryFindConflictsByDay(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "batch_id", "subject_id", "faculty_id", "time_slot_id", "day_of_week", "date", "entry_type", "custom_event_title", "custom_event_color", "created_at", "updated_at"}).
		AddRow("e9", "batch-2", "sub-2", "fac-1", "slot-1", "FRIDAY", nil, "REGULAR", nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, batch_id, subject_id, faculty_id, time_slot_id, day_of_week, date, entry_type, custom_event_title, custom_event_color, created_at, updated_at FROM timetable_entries WHERE time_slot_id = $1 AND day_of_week = $2 AND date IS NULL")).
		WithArgs("slot-1", "FRIDAY").
		WillReturnRows(rows)

	conflicts, err := repo.FindConflicts(context.Background(), "slot-1", "FRIDAY", nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "e9", conflicts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryFindConflictsByDate(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	date := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND date = $2")).
		WithArgs("slot-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "batch_id", "subject_id", "faculty_id", "time_slot_id", "day_of_week", "date", "entry_type", "custom_event_title", "custom_event_color", "created_at", "updated_at"}))

	conflicts, err := repo.FindConflicts(context.Background(), "slot-1", "FRIDAY", &date)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subjectID := "sub-1"
	entry := &models.TimetableEntry{
		BatchID:    "batch-1",
		SubjectID:  &subjectID,
		TimeSlotID: "slot-1",
		DayOfWeek:  "FRIDAY",
		EntryType:  models.EntryTypeRegular,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_entries")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	entries := []models.TimetableEntry{
		{BatchID: "batch-1", TimeSlotID: "slot-1", DayOfWeek: "MONDAY", EntryType: models.EntryTypeRegular},
		{BatchID: "batch-1", TimeSlotID: "slot-2", DayOfWeek: "MONDAY", EntryType: models.EntryTypeRegular},
	}
	err := repo.BulkCreate(context.Background(), entries)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryMove(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_entries SET time_slot_id = $1, day_of_week = $2, date = $3, updated_at = $4 WHERE id = $5")).
		WithArgs("slot-2", "TUESDAY", nil, sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Move(context.Background(), "e1", "slot-2", "TUESDAY", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableEntryRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newTimetableEntryRepoMock(t)
	defer cleanup()
	repo := NewTimetableEntryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "e1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
