package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// SlotChange is the capacity adjustment committed together with an application update.
type SlotChange int

const (
	SlotUnchanged SlotChange = iota
	SlotReserve
	SlotRelease
)

// SlotRepository maintains scholarships.approved_count. Reservation is a single
// conditional UPDATE so the row lock taken by Postgres serialises concurrent
// approvals for the same scholarship.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs the repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Reserve increments the approved counter when a slot remains (slots = 0 is unlimited).
func (r *SlotRepository) Reserve(ctx context.Context, exec sqlx.ExecerContext, scholarshipID string) error {
	const query = `UPDATE scholarships SET approved_count = approved_count + 1, updated_at = NOW()
	WHERE id = $1 AND (slots = 0 OR approved_count < slots)`
	result, err := exec.ExecContext(ctx, query, scholarshipID)
	if err != nil {
		return fmt.Errorf("reserve scholarship slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check slot reservation rows: %w", err)
	}
	if rows == 0 {
		return ErrNoSlotAvailable
	}
	return nil
}

// Release decrements the approved counter, never below zero.
func (r *SlotRepository) Release(ctx context.Context, exec sqlx.ExecerContext, scholarshipID string) error {
	const query = `UPDATE scholarships SET approved_count = approved_count - 1, updated_at = NOW()
	WHERE id = $1 AND approved_count > 0`
	if _, err := exec.ExecContext(ctx, query, scholarshipID); err != nil {
		return fmt.Errorf("release scholarship slot: %w", err)
	}
	return nil
}

// Apply runs the reservation or release described by change.
func (r *SlotRepository) Apply(ctx context.Context, exec sqlx.ExecerContext, scholarshipID string, change SlotChange) error {
	switch change {
	case SlotReserve:
		return r.Reserve(ctx, exec, scholarshipID)
	case SlotRelease:
		return r.Release(ctx, exec, scholarshipID)
	}
	return nil
}

// Usage reads the current capacity figures.
func (r *SlotRepository) Usage(ctx context.Context, scholarshipID string) (*models.SlotUsage, error) {
	const query = `SELECT id, slots, approved_count FROM scholarships WHERE id = $1`
	var usage models.SlotUsage
	if err := r.db.GetContext(ctx, &usage, query, scholarshipID); err != nil {
		return nil, err
	}
	usage.Normalize()
	return &usage, nil
}
