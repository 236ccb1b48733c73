package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

// DepartmentRepository persists the single department profile row.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Get loads the department profile.
func (r *DepartmentRepository) Get(ctx context.Context) (*models.Department, error) {
	const query = `SELECT id, name, code, academic_year, head_name, contact_email, created_at, updated_at FROM department LIMIT 1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query); err != nil {
		return nil, err
	}
	return &dept, nil
}

// Update modifies the department profile.
func (r *DepartmentRepository) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now().UTC()
	const query = `UPDATE department SET name = :name, code = :code, academic_year = :academic_year, head_name = :head_name, contact_email = :contact_email, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, dept); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}
