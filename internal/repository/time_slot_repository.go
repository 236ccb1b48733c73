package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/deptdesk-api/internal/models"
)

// TimeSlotRepository provides persistence for time slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a new time slot repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// List returns all slots in display order.
func (r *TimeSlotRepository) List(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, name, sort_order, created_at, updated_at FROM time_slots ORDER BY sort_order ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// FindByID loads a slot by id.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	const query = `SELECT id, name, sort_order, created_at, updated_at FROM time_slots WHERE id = $1`
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindByName loads a slot by its exact name.
func (r *TimeSlotRepository) FindByName(ctx context.Context, name string) (*models.TimeSlot, error) {
	const query = `SELECT id, name, sort_order, created_at, updated_at FROM time_slots WHERE name = $1`
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, name); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create stores a new slot.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO time_slots (id, name, sort_order, created_at, updated_at) VALUES (:id, :name, :sort_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// Update modifies a slot record.
func (r *TimeSlotRepository) Update(ctx context.Context, slot *models.TimeSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_slots SET name = :name, sort_order = :sort_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	return nil
}

// Delete removes a slot by id.
func (r *TimeSlotRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	return nil
}
