package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

// SubjectRepository provides persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns all subjects ordered by code.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, code, credits, created_at, updated_at FROM subjects ORDER BY code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, code, credits, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create stores a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (id, name, code, credits, created_at, updated_at) VALUES (:id, :name, :code, :credits, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject record.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, code = :code, credits = :credits, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject by id.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
