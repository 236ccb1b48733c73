package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/deptdesk-api/internal/calendar"
	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	BulkInsert(ctx context.Context, records []models.AttendanceRecord, atomic bool) ([]models.AttendanceRecord, error)
	SessionReport(ctx context.Context, entryID string, date time.Time) ([]models.AttendanceSessionRow, error)
}

type attendanceEntryRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error)
}

// MarkAttendanceRequest marks one student for one session.
type MarkAttendanceRequest struct {
	EntryID     string  `json:"entry_id" validate:"required"`
	StudentID   string  `json:"student_id" validate:"required"`
	SessionDate string  `json:"session_date" validate:"required"`
	Status      string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Notes       *string `json:"notes,omitempty"`
}

// BulkAttendanceItem is one student line of a bulk mark.
type BulkAttendanceItem struct {
	StudentID string  `json:"student_id" validate:"required"`
	Status    string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Notes     *string `json:"notes,omitempty"`
}

// BulkAttendanceRequest marks a whole session in one call.
type BulkAttendanceRequest struct {
	EntryID     string               `json:"entry_id" validate:"required"`
	SessionDate string               `json:"session_date" validate:"required"`
	Mode        string               `json:"mode" validate:"omitempty,oneof=atomic partial_on_error"`
	Records     []BulkAttendanceItem `json:"records" validate:"required,min=1,max=200,dive"`
}

// BulkAttendanceResult summarises a bulk write.
type BulkAttendanceResult struct {
	Inserted  int                             `json:"inserted"`
	Conflicts []models.AttendanceBulkConflict `json:"conflicts,omitempty"`
}

// AttendanceService records and reports per-session attendance.
type AttendanceService struct {
	records   attendanceRepository
	entries   attendanceEntryRepository
	validator *validator.Validate
	logger    *zap.Logger
	graceDays int
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(records attendanceRepository, entries attendanceEntryRepository, validate *validator.Validate, logger *zap.Logger, graceDays int) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if graceDays <= 0 {
		graceDays = calendar.DefaultGraceDays
	}
	return &AttendanceService{records: records, entries: entries, validator: validate, logger: logger, graceDays: graceDays}
}

// Mark records one student's attendance for a session, replacing any prior
// mark for the same entry/student/date.
func (s *AttendanceService) Mark(ctx context.Context, markedBy string, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	date, err := s.resolveSession(ctx, req.EntryID, req.SessionDate)
	if err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		EntryID:     req.EntryID,
		StudentID:   req.StudentID,
		SessionDate: date,
		Status:      models.AttendanceStatus(req.Status),
		Notes:       req.Notes,
		MarkedBy:    markedBy,
	}
	stored, err := s.records.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return stored, nil
}

// BulkMark records a whole session. Atomic mode aborts on the first
// duplicate; partial mode reports duplicates and keeps the rest.
func (s *AttendanceService) BulkMark(ctx context.Context, markedBy string, req BulkAttendanceRequest) (*BulkAttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk attendance payload")
	}

	date, err := s.resolveSession(ctx, req.EntryID, req.SessionDate)
	if err != nil {
		return nil, err
	}

	mode := models.BulkOperationMode(req.Mode)
	if mode == "" {
		mode = models.BulkModeAtomic
	}

	records := make([]models.AttendanceRecord, 0, len(req.Records))
	for _, item := range req.Records {
		records = append(records, models.AttendanceRecord{
			EntryID:     req.EntryID,
			StudentID:   item.StudentID,
			SessionDate: date,
			Status:      models.AttendanceStatus(item.Status),
			Notes:       item.Notes,
			MarkedBy:    markedBy,
		})
	}

	rejected, err := s.records.BulkInsert(ctx, records, mode == models.BulkModeAtomic)
	if err != nil {
		if mode == models.BulkModeAtomic && strings.Contains(err.Error(), "duplicate attendance") {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk record attendance")
	}

	result := &BulkAttendanceResult{Inserted: len(records) - len(rejected)}
	for _, r := range rejected {
		result.Conflicts = append(result.Conflicts, models.AttendanceBulkConflict{
			StudentID:   r.StudentID,
			EntryID:     r.EntryID,
			SessionDate: r.SessionDate,
			Reason:      "already marked for this session",
		})
	}
	return result, nil
}

// List returns attendance records matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, total, nil
}

// SessionReport returns the per-student roster of one materialized session.
func (s *AttendanceService) SessionReport(ctx context.Context, entryID, sessionDate string) ([]models.AttendanceSessionRow, error) {
	date, err := parseSessionDate(sessionDate)
	if err != nil {
		return nil, err
	}
	rows, err := s.records.SessionReport(ctx, entryID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build session report")
	}
	return rows, nil
}

// resolveSession validates that the date names an actual occurrence of the
// entry and that the session is still inside the editable window.
func (s *AttendanceService) resolveSession(ctx context.Context, entryID, sessionDate string) (time.Time, error) {
	date, err := parseSessionDate(sessionDate)
	if err != nil {
		return time.Time{}, err
	}

	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}

	if entry.Date != nil {
		if !entry.Date.Equal(date) {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "session date does not match the entry's date")
		}
	} else if !dayTokenMatches(entry.DayOfWeek, date) {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "session date does not fall on the entry's weekday")
	}

	if calendar.Classify(date, time.Now().UTC(), s.graceDays) == calendar.DeepPast {
		return time.Time{}, appErrors.Clone(appErrors.ErrPastLocked, "session is outside the editable window")
	}
	return date, nil
}

func dayTokenMatches(token string, date time.Time) bool {
	return strings.EqualFold(token, date.UTC().Weekday().String())
}

func parseSessionDate(raw string) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "session_date must be YYYY-MM-DD")
	}
	return parsed, nil
}
