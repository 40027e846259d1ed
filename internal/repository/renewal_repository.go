package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/scholarship-api/internal/models"
)

const renewalColumns = `id, original_application_id, student_id, scholarship_id, semester, year, current_gwa, status,
       documents, remarks, reviewed_by, submitted_at, reviewed_at, version`

var blockingRenewalStatuses = []string{
	string(models.RenewalStatusSubmitted),
	string(models.RenewalStatusUnderReview),
	string(models.RenewalStatusApproved),
}

// RenewalRepository persists renewal applications. A partial unique index on
// (original_application_id, semester, year) over blocking statuses backs the
// one-renewal-per-term rule.
type RenewalRepository struct {
	db *sqlx.DB
}

// NewRenewalRepository constructs the repository.
func NewRenewalRepository(db *sqlx.DB) *RenewalRepository {
	return &RenewalRepository{db: db}
}

// Create inserts a renewal request.
func (r *RenewalRepository) Create(ctx context.Context, renewal *models.RenewalApplication) error {
	if renewal.ID == "" {
		renewal.ID = uuid.NewString()
	}
	if renewal.SubmittedAt.IsZero() {
		renewal.SubmittedAt = time.Now().UTC()
	}
	if renewal.Status == "" {
		renewal.Status = models.RenewalStatusSubmitted
	}
	if renewal.Version == 0 {
		renewal.Version = 1
	}
	if err := encodeRenewal(renewal); err != nil {
		return err
	}
	const query = `INSERT INTO renewal_applications (` + renewalColumns + `)
	VALUES (:id, :original_application_id, :student_id, :scholarship_id, :semester, :year, :current_gwa, :status,
	        :documents, :remarks, :reviewed_by, :submitted_at, :reviewed_at, :version)`
	if _, err := r.db.NamedExecContext(ctx, query, renewal); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("create renewal application: %w", err)
	}
	return nil
}

// GetByID fetches a renewal by identifier.
func (r *RenewalRepository) GetByID(ctx context.Context, id string) (*models.RenewalApplication, error) {
	const query = `SELECT ` + renewalColumns + ` FROM renewal_applications WHERE id = $1`
	var renewal models.RenewalApplication
	if err := r.db.GetContext(ctx, &renewal, query, id); err != nil {
		return nil, err
	}
	if err := decodeRenewal(&renewal); err != nil {
		return nil, err
	}
	return &renewal, nil
}

// ListByApplication returns renewals of an original application, newest first.
func (r *RenewalRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.RenewalApplication, error) {
	const query = `SELECT ` + renewalColumns + ` FROM renewal_applications WHERE original_application_id = $1 ORDER BY submitted_at DESC`
	var renewals []models.RenewalApplication
	if err := r.db.SelectContext(ctx, &renewals, query, applicationID); err != nil {
		return nil, fmt.Errorf("list renewal applications: %w", err)
	}
	for i := range renewals {
		if err := decodeRenewal(&renewals[i]); err != nil {
			return nil, err
		}
	}
	return renewals, nil
}

// ExistsBlocking reports whether a non-rejected renewal exists for the term.
func (r *RenewalRepository) ExistsBlocking(ctx context.Context, applicationID string, term models.TermKey) (bool, error) {
	const query = `SELECT 1 FROM renewal_applications
	WHERE original_application_id = $1 AND semester = $2 AND year = $3 AND status = ANY($4) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, applicationID, term.Semester, term.Year, pq.Array(blockingRenewalStatuses)); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check blocking renewal: %w", err)
	}
	return true, nil
}

// HasApproved reports whether any renewal of the application was approved.
func (r *RenewalRepository) HasApproved(ctx context.Context, applicationID string) (bool, error) {
	const query = `SELECT 1 FROM renewal_applications WHERE original_application_id = $1 AND status = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, applicationID, models.RenewalStatusApproved); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check approved renewal: %w", err)
	}
	return true, nil
}

// SaveTransition writes a reviewed renewal guarded by its version.
func (r *RenewalRepository) SaveTransition(ctx context.Context, renewal *models.RenewalApplication, expectedVersion int) error {
	if err := encodeRenewal(renewal); err != nil {
		return err
	}
	const query = `UPDATE renewal_applications SET status = $1, documents = $2, remarks = $3, reviewed_by = $4,
	reviewed_at = $5, version = version + 1 WHERE id = $6 AND version = $7`
	result, err := r.db.ExecContext(ctx, query, renewal.Status, renewal.DocumentsRaw, renewal.Remarks,
		renewal.ReviewedBy, renewal.ReviewedAt, renewal.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update renewal application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check renewal update rows: %w", err)
	}
	if rows == 0 {
		return ErrStaleVersion
	}
	renewal.Version = expectedVersion + 1
	return nil
}

func encodeRenewal(renewal *models.RenewalApplication) error {
	docs := renewal.Documents
	if docs == nil {
		docs = models.DocumentSet{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode renewal documents: %w", err)
	}
	renewal.DocumentsRaw = raw
	return nil
}

func decodeRenewal(renewal *models.RenewalApplication) error {
	renewal.Documents = models.DocumentSet{}
	if len(renewal.DocumentsRaw) == 0 {
		return nil
	}
	if err := json.Unmarshal(renewal.DocumentsRaw, &renewal.Documents); err != nil {
		return fmt.Errorf("decode documents for renewal %s: %w", renewal.ID, err)
	}
	return nil
}
