package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

const entryDetailColumns = `e.id, e.batch_id, e.subject_id, e.faculty_id, e.time_slot_id, e.day_of_week, e.date, e.entry_type, e.custom_event_title, e.custom_event_color, e.created_at, e.updated_at, ts.name AS time_slot_name, s.name AS subject_name, s.code AS subject_code, f.name AS faculty_name, b.name AS batch_name`

const entryDetailJoins = ` FROM timetable_entries e
JOIN time_slots ts ON ts.id = e.time_slot_id
JOIN batches b ON b.id = e.batch_id
LEFT JOIN subjects s ON s.id = e.subject_id
LEFT JOIN faculty f ON f.id = e.faculty_id`

// TimetableEntryRepository provides persistence for timetable entries.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository creates a new timetable entry repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

// List returns entry details with optional filtering and pagination.
func (r *TimetableEntryRepository) List(ctx context.Context, filter models.TimetableEntryFilter) ([]models.TimetableEntryDetail, int, error) {
	base := entryDetailJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("e.batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("e.faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("e.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("e.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.EntryType != "" {
		conditions = append(conditions, fmt.Sprintf("e.entry_type = $%d", len(args)+1))
		args = append(args, filter.EntryType)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("e.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("e.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"day_of_week": "e.day_of_week",
		"date":        "e.date",
		"created_at":  "e.created_at",
		"time_slot":   "ts.sort_order",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "e.day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s%s ORDER BY %s %s, ts.sort_order ASC LIMIT %d OFFSET %d", entryDetailColumns, base, column, order, size, offset)
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable entries: %w", err)
	}

	countQuery := "SELECT COUNT(*)" + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable entries: %w", err)
	}

	return entries, total, nil
}

// ListByBatch returns all entry details for a batch without pagination,
// ordered for calendar materialization.
func (r *TimetableEntryRepository) ListByBatch(ctx context.Context, batchID string) ([]models.TimetableEntryDetail, error) {
	query := "SELECT " + entryDetailColumns + entryDetailJoins + " WHERE e.batch_id = $1 ORDER BY e.day_of_week ASC, ts.sort_order ASC"
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, batchID); err != nil {
		return nil, fmt.Errorf("list timetable entries by batch: %w", err)
	}
	return entries, nil
}

// FindByID loads one entry with joined reference names.
func (r *TimetableEntryRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntryDetail, error) {
	query := "SELECT " + entryDetailColumns + entryDetailJoins + " WHERE e.id = $1"
	var entry models.TimetableEntryDetail
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindConflicts returns entries occupying the same slot/day (or slot/date)
// for conflict validation. Dated and recurring entries are checked against
// their own kind only: a one-off entry never collides with a weekly
// pattern that happens to land on the same weekday, and vice versa.
// Overrides of a recurring slot on a specific date stay legal that way.
func (r *TimetableEntryRepository) FindConflicts(ctx context.Context, timeSlotID, dayOfWeek string, date *time.Time) ([]models.TimetableEntry, error) {
	const byDay = `SELECT id, batch_id, subject_id, faculty_id, time_slot_id, day_of_week, date, entry_type, custom_event_title, custom_event_color, created_at, updated_at FROM timetable_entries WHERE time_slot_id = $1 AND day_of_week = $2 AND date IS NULL`
	const byDate = `SELECT id, batch_id, subject_id, faculty_id, time_slot_id, day_of_week, date, entry_type, custom_event_title, custom_event_color, created_at, updated_at FROM timetable_entries WHERE time_slot_id = $1 AND date = $2`

	var entries []models.TimetableEntry
	if date != nil {
		if err := r.db.SelectContext(ctx, &entries, byDate, timeSlotID, *date); err != nil {
			return nil, fmt.Errorf("find entry conflicts by date: %w", err)
		}
		return entries, nil
	}
	if err := r.db.SelectContext(ctx, &entries, byDay, timeSlotID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("find entry conflicts by day: %w", err)
	}
	return entries, nil
}

// Create stores a new timetable entry.
func (r *TimetableEntryRepository) Create(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO timetable_entries (id, batch_id, subject_id, faculty_id, time_slot_id, day_of_week, date, entry_type, custom_event_title, custom_event_color, created_at, updated_at) VALUES (:id, :batch_id, :subject_id, :faculty_id, :time_slot_id, :day_of_week, :date, :entry_type, :custom_event_title, :custom_event_color, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}

// BulkCreate inserts many entries within a transaction.
func (r *TimetableEntryRepository) BulkCreate(ctx context.Context, entries []models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create entries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO timetable_entries (id, batch_id, subject_id, faculty_id, time_slot_id, day_of_week, date, entry_type, custom_event_title, custom_event_color, created_at, updated_at) VALUES (:id, :batch_id, :subject_id, :faculty_id, :time_slot_id, :day_of_week, :date, :entry_type, :custom_event_title, :custom_event_color, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert timetable entry: %w", err)
		}
		entries[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create entries: %w", err)
	}
	return nil
}

// Update modifies an entry record.
func (r *TimetableEntryRepository) Update(ctx context.Context, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_entries SET batch_id = :batch_id, subject_id = :subject_id, faculty_id = :faculty_id, time_slot_id = :time_slot_id, day_of_week = :day_of_week, date = :date, entry_type = :entry_type, custom_event_title = :custom_event_title, custom_event_color = :custom_event_color, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	return nil
}

// Move reassigns an entry's slot and day (or date) after a drag operation.
func (r *TimetableEntryRepository) Move(ctx context.Context, id, timeSlotID, dayOfWeek string, date *time.Time) error {
	const query = `UPDATE timetable_entries SET time_slot_id = $1, day_of_week = $2, date = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, timeSlotID, dayOfWeek, date, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("move timetable entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *TimetableEntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	return nil
}
