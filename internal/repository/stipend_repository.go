package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// StipendRepository reads the disbursement ledger. Entries are written by
// ApplicationRepository.SaveTransition together with the running total.
type StipendRepository struct {
	db *sqlx.DB
}

// NewStipendRepository constructs the repository.
func NewStipendRepository(db *sqlx.DB) *StipendRepository {
	return &StipendRepository{db: db}
}

// ListByApplication returns disbursements oldest first.
func (r *StipendRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.StipendDisbursement, error) {
	const query = `SELECT id, application_id, amount, recorded_by, note, disbursed_at
	FROM stipend_disbursements WHERE application_id = $1 ORDER BY disbursed_at ASC, id ASC`
	var entries []models.StipendDisbursement
	if err := r.db.SelectContext(ctx, &entries, query, applicationID); err != nil {
		return nil, fmt.Errorf("list stipend disbursements: %w", err)
	}
	return entries, nil
}

func insertStipend(ctx context.Context, tx *sqlx.Tx, entry *models.StipendDisbursement) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.DisbursedAt.IsZero() {
		entry.DisbursedAt = time.Now().UTC()
	}
	const query = `INSERT INTO stipend_disbursements (id, application_id, amount, recorded_by, note, disbursed_at)
	VALUES (:id, :application_id, :amount, :recorded_by, :note, :disbursed_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert stipend disbursement: %w", err)
	}
	return nil
}
