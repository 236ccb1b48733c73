package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

type mockEntryRepo struct {
	byID      map[string]*models.TimetableEntryDetail
	conflicts []models.TimetableEntry
	created   []*models.TimetableEntry
	moved     bool
	deleted   []string
}

func (m *mockEntryRepo) List(ctx context.Context, filter models.TimetableEntryFilter) ([]models.TimetableEntryDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEntryRepo) ListByBatch(ctx context.Context, batchID string) ([]models.TimetableEntryDetail, error) {
	return nil, nil
}

func (m *mockEntryRepo) FindByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error) {
	entry, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return entry, nil
}

func (m *mockEntryRepo) FindConflicts(ctx context.Context, timeSlotID, dayOfWeek string, date *time.Time) ([]models.TimetableEntry, error) {
	return m.conflicts, nil
}

func (m *mockEntryRepo) Create(ctx context.Context, entry *models.TimetableEntry) error {
	entry.ID = "created-1"
	m.created = append(m.created, entry)
	return nil
}

func (m *mockEntryRepo) BulkCreate(ctx context.Context, entries []models.TimetableEntry) error {
	return nil
}

func (m *mockEntryRepo) Update(ctx context.Context, entry *models.TimetableEntry) error {
	return nil
}

func (m *mockEntryRepo) Move(ctx context.Context, id, timeSlotID, dayOfWeek string, date *time.Time) error {
	m.moved = true
	return nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSlotRepo struct {
	slots map[string]*models.TimeSlot
}

func (m *mockSlotRepo) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, ok := m.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return slot, nil
}

func validSlots() *mockSlotRepo {
	return &mockSlotRepo{slots: map[string]*models.TimeSlot{
		"slot-1": {ID: "slot-1", Name: "10:00-11:30", SortOrder: 1},
		"slot-2": {ID: "slot-2", Name: "14:00-15:00", SortOrder: 2},
		"broken": {ID: "broken", Name: "ten to eleven", SortOrder: 3},
	}}
}

func detailFor(entry models.TimetableEntry) *models.TimetableEntryDetail {
	return &models.TimetableEntryDetail{TimetableEntry: entry, TimeSlotName: "10:00-11:30", BatchName: "CS 2024"}
}

func TestTimetableCreateSuccess(t *testing.T) {
	entries := &mockEntryRepo{}
	svc := NewTimetableService(entries, validSlots(), nil, nil, 30)

	created, err := svc.Create(context.Background(), CreateEntryRequest{
		BatchID:    "batch-1",
		TimeSlotID: "slot-1",
		DayOfWeek:  "FRIDAY",
		EntryType:  "REGULAR",
	})
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ID)
	require.Len(t, entries.created, 1)
}

func TestTimetableCreateUnknownDay(t *testing.T) {
	svc := NewTimetableService(&mockEntryRepo{}, validSlots(), nil, nil, 30)

	_, err := svc.Create(context.Background(), CreateEntryRequest{
		BatchID:    "batch-1",
		TimeSlotID: "slot-1",
		DayOfWeek:  "SOMEDAY",
		EntryType:  "REGULAR",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableCreateMalformedSlotName(t *testing.T) {
	svc := NewTimetableService(&mockEntryRepo{}, validSlots(), nil, nil, 30)

	_, err := svc.Create(context.Background(), CreateEntryRequest{
		BatchID:    "batch-1",
		TimeSlotID: "broken",
		DayOfWeek:  "MONDAY",
		EntryType:  "REGULAR",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedTimeSlot.Code, appErrors.FromError(err).Code)
}

func TestTimetableCreateBatchConflict(t *testing.T) {
	entries := &mockEntryRepo{conflicts: []models.TimetableEntry{
		{ID: "other", BatchID: "batch-1", TimeSlotID: "slot-1", DayOfWeek: "FRIDAY"},
	}}
	svc := NewTimetableService(entries, validSlots(), nil, nil, 30)

	_, err := svc.Create(context.Background(), CreateEntryRequest{
		BatchID:    "batch-1",
		TimeSlotID: "slot-1",
		DayOfWeek:  "FRIDAY",
		EntryType:  "REGULAR",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	var conflictErr *models.SlotConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "batch", conflictErr.Conflict.Dimension)
	assert.Equal(t, "other", conflictErr.Conflict.EntryID)
}

func TestTimetableCreateFacultyConflict(t *testing.T) {
	faculty := "fac-1"
	entries := &mockEntryRepo{conflicts: []models.TimetableEntry{
		{ID: "other", BatchID: "batch-2", FacultyID: &faculty, TimeSlotID: "slot-1", DayOfWeek: "FRIDAY"},
	}}
	svc := NewTimetableService(entries, validSlots(), nil, nil, 30)

	_, err := svc.Create(context.Background(), CreateEntryRequest{
		BatchID:    "batch-1",
		FacultyID:  &faculty,
		TimeSlotID: "slot-1",
		DayOfWeek:  "FRIDAY",
		EntryType:  "REGULAR",
	})
	require.Error(t, err)

	var conflictErr *models.SlotConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "faculty", conflictErr.Conflict.Dimension)
}

func TestTimetableCreateOtherBatchNoConflict(t *testing.T) {
	entries := &mockEntryRepo{conflicts: []models.TimetableEntry{
		{ID: "other", BatchID: "batch-2", TimeSlotID: "slot-1", DayOfWeek: "FRIDAY"},
	}}
	svc := NewTimetableService(entries, validSlots(), nil, nil, 30)

	_, err := svc.Create(context.Background(), CreateEntryRequest{
		BatchID:    "batch-1",
		TimeSlotID: "slot-1",
		DayOfWeek:  "FRIDAY",
		EntryType:  "REGULAR",
	})
	require.NoError(t, err)
}

func TestTimetableMoveDeepPastLocked(t *testing.T) {
	old := time.Now().UTC().AddDate(0, 0, -31)
	entries := &mockEntryRepo{byID: map[string]*models.TimetableEntryDetail{
		"e1": detailFor(models.TimetableEntry{ID: "e1", BatchID: "batch-1", TimeSlotID: "slot-1", DayOfWeek: "FRIDAY", Date: &old}),
	}}
	svc := NewTimetableService(entries, validSlots(), nil, nil, 30)

	_, err := svc.Move(context.Background(), "e1", MoveEntryRequest{TimeSlotID: "slot-2", DayOfWeek: "MONDAY"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPastLocked.Code, appErrors.FromError(err).Code)
	assert.False(t, entries.moved)
}

func TestTimetableMoveRecentPastAllowed(t *testing.T) {
	recent := time.Now().UTC().AddDate(0, 0, -10)
	entries := &mockEntryRepo{byID: map[string]*models.TimetableEntryDetail{
		"e1": detailFor(models.TimetableEntry{ID: "e1", BatchID: "batch-1", TimeSlotID: "slot-1", DayOfWeek: "FRIDAY", Date: &recent}),
	}}
	svc := NewTimetableService(entries, validSlots(), nil, nil, 30)

	_, err := svc.Move(context.Background(), "e1", MoveEntryRequest{TimeSlotID: "slot-2", DayOfWeek: "MONDAY"})
	require.NoError(t, err)
	assert.True(t, entries.moved)
}

func TestTimetableDeleteDeepPastLocked(t *testing.T) {
	old := time.Now().UTC().AddDate(0, 0, -45)
	entries := &mockEntryRepo{byID: map[string]*models.TimetableEntryDetail{
		"e1": detailFor(models.TimetableEntry{ID: "e1", BatchID: "batch-1", TimeSlotID: "slot-1", DayOfWeek: "FRIDAY", Date: &old}),
	}}
	svc := NewTimetableService(entries, validSlots(), nil, nil, 30)

	err := svc.Delete(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPastLocked.Code, appErrors.FromError(err).Code)
	assert.Empty(t, entries.deleted)
}

func TestTimetableGetByIDNotFound(t *testing.T) {
	svc := NewTimetableService(&mockEntryRepo{}, validSlots(), nil, nil, 30)

	_, err := svc.GetByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
