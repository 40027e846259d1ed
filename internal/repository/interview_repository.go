package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarship-api/internal/models"
)

const interviewColumns = `id, application_id, scheduled_at, status, remarks, notes, scheduled_by, created_at, updated_at`

// InterviewRepository stores the single interview bound to each application.
type InterviewRepository struct {
	db *sqlx.DB
}

// NewInterviewRepository constructs the repository.
func NewInterviewRepository(db *sqlx.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// Upsert creates the interview or updates the existing row in place.
func (r *InterviewRepository) Upsert(ctx context.Context, interview *models.Interview) error {
	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if interview.CreatedAt.IsZero() {
		interview.CreatedAt = now
	}
	interview.UpdatedAt = now
	const query = `INSERT INTO interviews (` + interviewColumns + `)
	VALUES (:id, :application_id, :scheduled_at, :status, :remarks, :notes, :scheduled_by, :created_at, :updated_at)
	ON CONFLICT (application_id) DO UPDATE SET scheduled_at = EXCLUDED.scheduled_at, status = EXCLUDED.status,
	remarks = EXCLUDED.remarks, notes = EXCLUDED.notes, scheduled_by = EXCLUDED.scheduled_by, updated_at = EXCLUDED.updated_at
	RETURNING id, created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, interview)
	if err != nil {
		return fmt.Errorf("upsert interview: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&interview.ID, &interview.CreatedAt); err != nil {
			return fmt.Errorf("scan upserted interview: %w", err)
		}
	}
	return rows.Err()
}

// GetByApplication returns the interview for an application or sql.ErrNoRows.
func (r *InterviewRepository) GetByApplication(ctx context.Context, applicationID string) (*models.Interview, error) {
	const query = `SELECT ` + interviewColumns + ` FROM interviews WHERE application_id = $1`
	var interview models.Interview
	if err := r.db.GetContext(ctx, &interview, query, applicationID); err != nil {
		return nil, err
	}
	return &interview, nil
}
