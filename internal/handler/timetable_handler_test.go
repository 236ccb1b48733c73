package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusops/deptdesk-api/internal/models"
	"github.com/campusops/deptdesk-api/internal/service"
)

type entryRepoStub struct {
	byID    map[string]*models.TimetableEntryDetail
	created *models.TimetableEntry
	moved   bool
	deleted string
}

func (s *entryRepoStub) List(ctx context.Context, filter models.TimetableEntryFilter) ([]models.TimetableEntryDetail, int, error) {
	out := make([]models.TimetableEntryDetail, 0, len(s.byID))
	for _, detail := range s.byID {
		out = append(out, *detail)
	}
	return out, len(out), nil
}

func (s *entryRepoStub) ListByBatch(ctx context.Context, batchID string) ([]models.TimetableEntryDetail, error) {
	return nil, nil
}

func (s *entryRepoStub) FindByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error) {
	detail, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (s *entryRepoStub) FindConflicts(ctx context.Context, timeSlotID, dayOfWeek string, date *time.Time) ([]models.TimetableEntry, error) {
	return nil, nil
}

func (s *entryRepoStub) Create(ctx context.Context, entry *models.TimetableEntry) error {
	entry.ID = "generated"
	s.created = entry
	return nil
}

func (s *entryRepoStub) BulkCreate(ctx context.Context, entries []models.TimetableEntry) error {
	return nil
}

func (s *entryRepoStub) Update(ctx context.Context, entry *models.TimetableEntry) error {
	return nil
}

func (s *entryRepoStub) Move(ctx context.Context, id, timeSlotID, dayOfWeek string, date *time.Time) error {
	s.moved = true
	return nil
}

func (s *entryRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = id
	return nil
}

type slotRepoStub struct{}

func (s *slotRepoStub) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if id != "slot-1" {
		return nil, sql.ErrNoRows
	}
	return &models.TimeSlot{ID: "slot-1", Name: "10:00-11:30", SortOrder: 1}, nil
}

type recordingCacheStub struct {
	noopCacheStub
	patterns []string
}

func (s *recordingCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newTimetableHandlerWith(repo *entryRepoStub) (*TimetableHandler, *entryRepoStub) {
	if repo == nil {
		repo = &entryRepoStub{byID: map[string]*models.TimetableEntryDetail{}}
	}
	svc := service.NewTimetableService(repo, &slotRepoStub{}, nil, nil, 30)
	calendarSvc := service.NewCalendarService(&calendarEntryRepoStub{}, &noopCacheStub{}, nil, nil, service.CalendarConfig{})
	return NewTimetableHandler(svc, calendarSvc), repo
}

func TestTimetableHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newTimetableHandlerWith(nil)

	payload := map[string]interface{}{
		"batch_id":     "b1",
		"time_slot_id": "slot-1",
		"day_of_week":  "MONDAY",
		"entry_type":   "REGULAR",
	}
	body, _ := json.Marshal(payload)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/entries", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	require.Equal(t, "b1", repo.created.BatchID)
}

func TestTimetableHandlerCreateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTimetableHandlerWith(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/entries", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTimetableHandlerWith(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/entries/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerMoveDeepPastEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	old := time.Now().UTC().AddDate(0, 0, -45)
	oldDate := time.Date(old.Year(), old.Month(), old.Day(), 0, 0, 0, 0, time.UTC)
	repo := &entryRepoStub{byID: map[string]*models.TimetableEntryDetail{
		"e1": {
			TimetableEntry: models.TimetableEntry{
				ID:         "e1",
				BatchID:    "b1",
				TimeSlotID: "slot-1",
				DayOfWeek:  "MONDAY",
				Date:       &oldDate,
				EntryType:  models.EntryTypeRegular,
			},
			TimeSlotName: "10:00-11:30",
			BatchName:    "CS 2024",
		},
	}}
	handler, repo := newTimetableHandlerWith(repo)

	payload := map[string]interface{}{
		"time_slot_id": "slot-1",
		"day_of_week":  "TUESDAY",
	}
	body, _ := json.Marshal(payload)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/timetable/entries/e1/move", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Move(c)

	require.Equal(t, http.StatusConflict, w.Code)
	require.False(t, repo.moved)
}

func TestTimetableHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &entryRepoStub{byID: map[string]*models.TimetableEntryDetail{
		"e1": {
			TimetableEntry: models.TimetableEntry{
				ID:         "e1",
				BatchID:    "b1",
				TimeSlotID: "slot-1",
				DayOfWeek:  "MONDAY",
				EntryType:  models.EntryTypeRegular,
			},
			TimeSlotName: "10:00-11:30",
			BatchName:    "CS 2024",
		},
	}}
	handler, repo := newTimetableHandlerWith(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/timetable/entries/e1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Delete(c)
	// gin defers the status write until the response is flushed
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "e1", repo.deleted)
}

func TestTimetableHandlerBulkCreateInvalidatesEveryBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &entryRepoStub{byID: map[string]*models.TimetableEntryDetail{}}
	svc := service.NewTimetableService(repo, &slotRepoStub{}, nil, nil, 30)
	cache := &recordingCacheStub{}
	calendarSvc := service.NewCalendarService(&calendarEntryRepoStub{}, cache, nil, nil, service.CalendarConfig{})
	handler := NewTimetableHandler(svc, calendarSvc)

	payload := map[string]interface{}{
		"entries": []map[string]interface{}{
			{"batch_id": "b1", "time_slot_id": "slot-1", "day_of_week": "MONDAY", "entry_type": "REGULAR"},
			{"batch_id": "b2", "time_slot_id": "slot-1", "day_of_week": "TUESDAY", "entry_type": "REGULAR"},
			{"batch_id": "b1", "time_slot_id": "slot-1", "day_of_week": "WEDNESDAY", "entry_type": "REGULAR"},
		},
	}
	body, _ := json.Marshal(payload)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/entries/bulk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.BulkCreate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.ElementsMatch(t, []string{"calendar:*:b1:*", "calendar:*:b2:*"}, cache.patterns)
}
