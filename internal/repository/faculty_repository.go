package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

// FacultyRepository provides persistence for faculty members.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a new faculty repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns all faculty ordered by name.
func (r *FacultyRepository) List(ctx context.Context) ([]models.Faculty, error) {
	const query = `SELECT id, name, code, email, designation, created_at, updated_at FROM faculty ORDER BY name ASC`
	var members []models.Faculty
	if err := r.db.SelectContext(ctx, &members, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return members, nil
}

// FindByID loads a faculty member by id.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	const query = `SELECT id, name, code, email, designation, created_at, updated_at FROM faculty WHERE id = $1`
	var member models.Faculty
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// Create stores a new faculty member.
func (r *FacultyRepository) Create(ctx context.Context, member *models.Faculty) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now

	const query = `INSERT INTO faculty (id, name, code, email, designation, created_at, updated_at) VALUES (:id, :name, :code, :email, :designation, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies a faculty record.
func (r *FacultyRepository) Update(ctx context.Context, member *models.Faculty) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET name = :name, code = :code, email = :email, designation = :designation, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return nil
}

// Delete removes a faculty member by id.
func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return nil
}
