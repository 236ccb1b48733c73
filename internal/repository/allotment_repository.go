package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

const allotmentDetailQuery = `SELECT a.id, a.faculty_id, a.subject_id, a.batch_id, a.academic_year, a.created_at, f.name AS faculty_name, s.name AS subject_name, s.code AS subject_code, b.name AS batch_name
FROM subject_allotments a
JOIN faculty f ON f.id = a.faculty_id
JOIN subjects s ON s.id = a.subject_id
JOIN batches b ON b.id = a.batch_id`

// AllotmentRepository persists faculty subject allotments.
type AllotmentRepository struct {
	db *sqlx.DB
}

// NewAllotmentRepository creates a new allotment repository.
func NewAllotmentRepository(db *sqlx.DB) *AllotmentRepository {
	return &AllotmentRepository{db: db}
}

// ListByFaculty returns a faculty member's allotments.
func (r *AllotmentRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.SubjectAllotmentDetail, error) {
	query := allotmentDetailQuery + " WHERE a.faculty_id = $1 ORDER BY s.code ASC"
	var allotments []models.SubjectAllotmentDetail
	if err := r.db.SelectContext(ctx, &allotments, query, facultyID); err != nil {
		return nil, fmt.Errorf("list allotments by faculty: %w", err)
	}
	return allotments, nil
}

// ListByBatch returns allotments targeting a batch.
func (r *AllotmentRepository) ListByBatch(ctx context.Context, batchID string) ([]models.SubjectAllotmentDetail, error) {
	query := allotmentDetailQuery + " WHERE a.batch_id = $1 ORDER BY s.code ASC"
	var allotments []models.SubjectAllotmentDetail
	if err := r.db.SelectContext(ctx, &allotments, query, batchID); err != nil {
		return nil, fmt.Errorf("list allotments by batch: %w", err)
	}
	return allotments, nil
}

// FindExisting returns the allotment for a subject+batch pair, if any.
func (r *AllotmentRepository) FindExisting(ctx context.Context, subjectID, batchID, academicYear string) (*models.SubjectAllotment, error) {
	const query = `SELECT id, faculty_id, subject_id, batch_id, academic_year, created_at FROM subject_allotments WHERE subject_id = $1 AND batch_id = $2 AND academic_year = $3`
	var allotment models.SubjectAllotment
	if err := r.db.GetContext(ctx, &allotment, query, subjectID, batchID, academicYear); err != nil {
		return nil, err
	}
	return &allotment, nil
}

// Create stores a new allotment.
func (r *AllotmentRepository) Create(ctx context.Context, allotment *models.SubjectAllotment) error {
	if allotment.ID == "" {
		allotment.ID = uuid.NewString()
	}
	if allotment.CreatedAt.IsZero() {
		allotment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO subject_allotments (id, faculty_id, subject_id, batch_id, academic_year, created_at) VALUES (:id, :faculty_id, :subject_id, :batch_id, :academic_year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, allotment); err != nil {
		return fmt.Errorf("create allotment: %w", err)
	}
	return nil
}

// Delete removes an allotment by id.
func (r *AllotmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subject_allotments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete allotment: %w", err)
	}
	return nil
}
