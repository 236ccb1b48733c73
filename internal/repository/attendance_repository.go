package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

// AttendanceRepository persists per-session attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance records with optional filtering and pagination.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := "FROM attendance_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.EntryID != "" {
		conditions = append(conditions, fmt.Sprintf("entry_id = $%d", len(args)+1))
		args = append(args, filter.EntryID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.SessionDate != nil {
		conditions = append(conditions, fmt.Sprintf("session_date = $%d", len(args)+1))
		args = append(args, *filter.SessionDate)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, entry_id, student_id, session_date, status, notes, marked_by, created_at, updated_at %s ORDER BY session_date DESC, student_id ASC LIMIT %d OFFSET %d", base, size, offset)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	return records, total, nil
}

// Upsert writes one record, replacing any prior mark for the same
// entry/student/date.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance_records (id, entry_id, student_id, session_date, status, notes, marked_by, created_at, updated_at)
VALUES (:id, :entry_id, :student_id, :session_date, :status, :notes, :marked_by, :created_at, :updated_at)
ON CONFLICT (entry_id, student_id, session_date)
DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return record, nil
}

// BulkInsert writes many records. In atomic mode any duplicate aborts the
// whole batch; otherwise duplicates are collected and returned as conflicts.
// Duplicates are detected with ON CONFLICT DO NOTHING so the transaction
// stays healthy across conflicting rows.
func (r *AttendanceRepository) BulkInsert(ctx context.Context, records []models.AttendanceRecord, atomic bool) ([]models.AttendanceRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk attendance: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const insert = `INSERT INTO attendance_records (id, entry_id, student_id, session_date, status, notes, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (entry_id, student_id, session_date) DO NOTHING
RETURNING id`

	var conflicts []models.AttendanceRecord
	for i := range records {
		payload := records[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		payload.CreatedAt = now
		payload.UpdatedAt = now

		var insertedID string
		scanErr := tx.QueryRowxContext(ctx, insert,
			payload.ID, payload.EntryID, payload.StudentID, payload.SessionDate,
			payload.Status, payload.Notes, payload.MarkedBy, payload.CreatedAt, payload.UpdatedAt,
		).Scan(&insertedID)
		if errors.Is(scanErr, sql.ErrNoRows) {
			if atomic {
				return nil, fmt.Errorf("duplicate attendance for student %s on %s", payload.StudentID, payload.SessionDate.Format("2006-01-02"))
			}
			conflicts = append(conflicts, payload)
			continue
		}
		if scanErr != nil {
			return nil, fmt.Errorf("bulk insert attendance: %w", scanErr)
		}
		records[i] = payload
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk attendance: %w", err)
	}
	commit = true
	return conflicts, nil
}

// SessionReport returns per-student rows for one materialized session.
func (r *AttendanceRepository) SessionReport(ctx context.Context, entryID string, date time.Time) ([]models.AttendanceSessionRow, error) {
	const query = `SELECT a.student_id, u.full_name AS student_name, a.status, a.notes
FROM attendance_records a
JOIN users u ON u.id = a.student_id
WHERE a.entry_id = $1 AND a.session_date = $2
ORDER BY u.full_name ASC`
	var rows []models.AttendanceSessionRow
	if err := r.db.SelectContext(ctx, &rows, query, entryID, date); err != nil {
		return nil, fmt.Errorf("attendance session report: %w", err)
	}
	return rows, nil
}
