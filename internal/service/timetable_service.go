package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/deptdesk-api/internal/calendar"
	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

type timetableEntryRepository interface {
	List(ctx context.Context, filter models.TimetableEntryFilter) ([]models.TimetableEntryDetail, int, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.TimetableEntryDetail, error)
	FindByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error)
	FindConflicts(ctx context.Context, timeSlotID, dayOfWeek string, date *time.Time) ([]models.TimetableEntry, error)
	Create(ctx context.Context, entry *models.TimetableEntry) error
	BulkCreate(ctx context.Context, entries []models.TimetableEntry) error
	Update(ctx context.Context, entry *models.TimetableEntry) error
	Move(ctx context.Context, id, timeSlotID, dayOfWeek string, date *time.Time) error
	Delete(ctx context.Context, id string) error
}

type timetableSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// CreateEntryRequest is the payload for creating a timetable entry.
type CreateEntryRequest struct {
	BatchID          string  `json:"batch_id" validate:"required"`
	SubjectID        *string `json:"subject_id,omitempty"`
	FacultyID        *string `json:"faculty_id,omitempty"`
	TimeSlotID       string  `json:"time_slot_id" validate:"required"`
	DayOfWeek        string  `json:"day_of_week" validate:"required"`
	Date             *string `json:"date,omitempty"`
	EntryType        string  `json:"entry_type" validate:"required,oneof=REGULAR EXTRA MAKEUP"`
	CustomEventTitle *string `json:"custom_event_title,omitempty"`
	CustomEventColor *string `json:"custom_event_color,omitempty"`
}

// UpdateEntryRequest is the payload for updating an entry in place.
type UpdateEntryRequest struct {
	SubjectID        *string `json:"subject_id,omitempty"`
	FacultyID        *string `json:"faculty_id,omitempty"`
	TimeSlotID       string  `json:"time_slot_id" validate:"required"`
	DayOfWeek        string  `json:"day_of_week" validate:"required"`
	Date             *string `json:"date,omitempty"`
	EntryType        string  `json:"entry_type" validate:"required,oneof=REGULAR EXTRA MAKEUP"`
	CustomEventTitle *string `json:"custom_event_title,omitempty"`
	CustomEventColor *string `json:"custom_event_color,omitempty"`
}

// MoveEntryRequest reassigns an entry's slot and day or date.
type MoveEntryRequest struct {
	TimeSlotID string  `json:"time_slot_id" validate:"required"`
	DayOfWeek  string  `json:"day_of_week" validate:"required"`
	Date       *string `json:"date,omitempty"`
}

// BulkCreateEntriesRequest inserts several entries in one transaction.
type BulkCreateEntriesRequest struct {
	Entries []CreateEntryRequest `json:"entries" validate:"required,min=1,max=100,dive"`
}

// TimetableService manages timetable entries and slot conflict rules.
type TimetableService struct {
	entries   timetableEntryRepository
	slots     timetableSlotRepository
	validator *validator.Validate
	logger    *zap.Logger
	graceDays int
}

// NewTimetableService constructs a TimetableService instance.
func NewTimetableService(entries timetableEntryRepository, slots timetableSlotRepository, validate *validator.Validate, logger *zap.Logger, graceDays int) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if graceDays <= 0 {
		graceDays = calendar.DefaultGraceDays
	}
	return &TimetableService{entries: entries, slots: slots, validator: validate, logger: logger, graceDays: graceDays}
}

// List returns entries matching the filter with a total count.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableEntryFilter) ([]models.TimetableEntryDetail, int, error) {
	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	return entries, total, nil
}

// GetByID loads one entry with joined reference names.
func (s *TimetableService) GetByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	return entry, nil
}

// Create validates and stores a new entry, rejecting slot collisions.
func (s *TimetableService) Create(ctx context.Context, req CreateEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}

	entry, err := s.buildEntry(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, "", entry); err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable entry")
	}
	return entry, nil
}

// BulkCreate validates every entry and inserts them transactionally.
func (s *TimetableService) BulkCreate(ctx context.Context, req BulkCreateEntriesRequest) ([]models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk entries payload")
	}

	entries := make([]models.TimetableEntry, 0, len(req.Entries))
	for _, item := range req.Entries {
		entry, err := s.buildEntry(ctx, item)
		if err != nil {
			return nil, err
		}
		if err := s.checkConflicts(ctx, "", entry); err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := s.entries.BulkCreate(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk create timetable entries")
	}
	return entries, nil
}

// Update replaces the mutable fields of an entry.
func (s *TimetableService) Update(ctx context.Context, id string, req UpdateEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(existing.Date); err != nil {
		return nil, err
	}

	entry, err := s.buildEntry(ctx, CreateEntryRequest{
		BatchID:          existing.BatchID,
		SubjectID:        req.SubjectID,
		FacultyID:        req.FacultyID,
		TimeSlotID:       req.TimeSlotID,
		DayOfWeek:        req.DayOfWeek,
		Date:             req.Date,
		EntryType:        req.EntryType,
		CustomEventTitle: req.CustomEventTitle,
		CustomEventColor: req.CustomEventColor,
	})
	if err != nil {
		return nil, err
	}
	entry.ID = existing.ID
	entry.CreatedAt = existing.CreatedAt

	if err := s.checkConflicts(ctx, existing.ID, entry); err != nil {
		return nil, err
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable entry")
	}
	return entry, nil
}

// Move reassigns an entry's slot after a drag operation. Deep-past dated
// entries are immutable.
func (s *TimetableService) Move(ctx context.Context, id string, req MoveEntryRequest) (*models.TimetableEntryDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	if !models.ValidDayOfWeek(req.DayOfWeek) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day of week: "+req.DayOfWeek)
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(existing.Date); err != nil {
		return nil, err
	}

	date, err := parseEntryDate(req.Date)
	if err != nil {
		return nil, err
	}
	if date != nil {
		if err := s.ensureEditable(date); err != nil {
			return nil, err
		}
	}

	probe := &models.TimetableEntry{
		BatchID:    existing.BatchID,
		FacultyID:  existing.FacultyID,
		TimeSlotID: req.TimeSlotID,
		DayOfWeek:  req.DayOfWeek,
		Date:       date,
	}
	if err := s.checkConflicts(ctx, existing.ID, probe); err != nil {
		return nil, err
	}

	if err := s.entries.Move(ctx, id, req.TimeSlotID, req.DayOfWeek, date); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move timetable entry")
	}
	return s.GetByID(ctx, id)
}

// Delete removes an entry. Deep-past dated entries are immutable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureEditable(existing.Date); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entry")
	}
	return nil
}

func (s *TimetableService) buildEntry(ctx context.Context, req CreateEntryRequest) (*models.TimetableEntry, error) {
	if !models.ValidDayOfWeek(req.DayOfWeek) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day of week: "+req.DayOfWeek)
	}

	slot, err := s.slots.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	if _, err := calendar.ParseTimeSlot(slot.Name); err != nil {
		return nil, appErrors.Clone(appErrors.ErrMalformedTimeSlot, "time slot name is not HH:MM-HH:MM: "+slot.Name)
	}

	date, err := parseEntryDate(req.Date)
	if err != nil {
		return nil, err
	}

	return &models.TimetableEntry{
		BatchID:          req.BatchID,
		SubjectID:        req.SubjectID,
		FacultyID:        req.FacultyID,
		TimeSlotID:       req.TimeSlotID,
		DayOfWeek:        req.DayOfWeek,
		Date:             date,
		EntryType:        models.EntryType(req.EntryType),
		CustomEventTitle: req.CustomEventTitle,
		CustomEventColor: req.CustomEventColor,
	}, nil
}

// checkConflicts rejects entries colliding with an existing one in the same
// batch or taught by the same faculty member at the same slot.
func (s *TimetableService) checkConflicts(ctx context.Context, selfID string, entry *models.TimetableEntry) error {
	existing, err := s.entries.FindConflicts(ctx, entry.TimeSlotID, entry.DayOfWeek, entry.Date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot conflicts")
	}

	for _, other := range existing {
		if other.ID == selfID {
			continue
		}
		dimension := ""
		switch {
		case other.BatchID == entry.BatchID:
			dimension = "batch"
		case entry.FacultyID != nil && other.FacultyID != nil && *other.FacultyID == *entry.FacultyID:
			dimension = "faculty"
		default:
			continue
		}

		conflict := models.SlotConflict{
			EntryID:    other.ID,
			BatchID:    other.BatchID,
			FacultyID:  other.FacultyID,
			TimeSlotID: other.TimeSlotID,
			DayOfWeek:  other.DayOfWeek,
			Dimension:  dimension,
		}
		if other.Date != nil {
			formatted := other.Date.Format("2006-01-02")
			conflict.Date = &formatted
		}
		s.logger.Info("slot conflict rejected",
			zap.String("dimension", dimension),
			zap.String("conflicting_entry", other.ID))
		return appErrors.Wrap(&models.SlotConflictError{
			Type:     "SLOT_CONFLICT",
			Message:  "slot is already occupied",
			Conflict: conflict,
		}, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "slot is already occupied")
	}
	return nil
}

func (s *TimetableService) ensureEditable(date *time.Time) error {
	if date == nil {
		return nil
	}
	if calendar.Classify(*date, time.Now().UTC(), s.graceDays) == calendar.DeepPast {
		return appErrors.Clone(appErrors.ErrPastLocked, "entries older than the grace window cannot be modified")
	}
	return nil
}

func parseEntryDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", *raw, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return &parsed, nil
}
