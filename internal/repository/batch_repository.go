package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

// BatchRepository provides persistence for student batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository creates a new batch repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns all batches ordered by program and semester.
func (r *BatchRepository) List(ctx context.Context) ([]models.Batch, error) {
	const query = `SELECT id, name, program, semester, specialization, created_at, updated_at FROM batches ORDER BY program ASC, semester ASC`
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// FindByID loads a batch by id.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	const query = `SELECT id, name, program, semester, specialization, created_at, updated_at FROM batches WHERE id = $1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Create stores a new batch.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now

	const query = `INSERT INTO batches (id, name, program, semester, specialization, created_at, updated_at) VALUES (:id, :name, :program, :semester, :specialization, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Update modifies a batch record.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) error {
	batch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE batches SET name = :name, program = :program, semester = :semester, specialization = :specialization, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return nil
}

// Delete removes a batch by id.
func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}
