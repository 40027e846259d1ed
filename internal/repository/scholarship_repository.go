package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarship-api/internal/models"
)

const scholarshipColumns = `id, name, type, status, application_deadline, slots, approved_count, stipend_amount,
       eligibility_criteria, required_documents, created_at, updated_at`

// ScholarshipRepository persists scholarship program configuration.
type ScholarshipRepository struct {
	db *sqlx.DB
}

// NewScholarshipRepository constructs the repository.
func NewScholarshipRepository(db *sqlx.DB) *ScholarshipRepository {
	return &ScholarshipRepository{db: db}
}

// Create inserts a scholarship.
func (r *ScholarshipRepository) Create(ctx context.Context, scholarship *models.Scholarship) error {
	if scholarship.ID == "" {
		scholarship.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if scholarship.CreatedAt.IsZero() {
		scholarship.CreatedAt = now
	}
	scholarship.UpdatedAt = now
	if err := encodeScholarship(scholarship); err != nil {
		return err
	}
	const query = `INSERT INTO scholarships (` + scholarshipColumns + `)
	VALUES (:id, :name, :type, :status, :application_deadline, :slots, :approved_count, :stipend_amount,
	        :eligibility_criteria, :required_documents, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, scholarship); err != nil {
		return fmt.Errorf("create scholarship: %w", err)
	}
	return nil
}

// GetByID fetches a scholarship by identifier.
func (r *ScholarshipRepository) GetByID(ctx context.Context, id string) (*models.Scholarship, error) {
	const query = `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE id = $1`
	var scholarship models.Scholarship
	if err := r.db.GetContext(ctx, &scholarship, query, id); err != nil {
		return nil, err
	}
	if err := decodeScholarship(&scholarship); err != nil {
		return nil, err
	}
	return &scholarship, nil
}

// List returns scholarships matching the filter with the total count.
func (r *ScholarshipRepository) List(ctx context.Context, filter models.ScholarshipFilter) ([]models.Scholarship, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM scholarships%s ORDER BY application_deadline DESC LIMIT %d OFFSET %d", scholarshipColumns, clause, size, offset)
	var scholarships []models.Scholarship
	if err := r.db.SelectContext(ctx, &scholarships, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list scholarships: %w", err)
	}
	for i := range scholarships {
		if err := decodeScholarship(&scholarships[i]); err != nil {
			return nil, 0, err
		}
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM scholarships"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count scholarships: %w", err)
	}
	return scholarships, total, nil
}

// Update rewrites staff-editable fields. approved_count is owned by SlotRepository.
func (r *ScholarshipRepository) Update(ctx context.Context, scholarship *models.Scholarship) error {
	scholarship.UpdatedAt = time.Now().UTC()
	if err := encodeScholarship(scholarship); err != nil {
		return err
	}
	const query = `UPDATE scholarships SET name = :name, type = :type, status = :status,
	application_deadline = :application_deadline, slots = :slots, stipend_amount = :stipend_amount,
	eligibility_criteria = :eligibility_criteria, required_documents = :required_documents, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, scholarship)
	if err != nil {
		return fmt.Errorf("update scholarship: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check scholarship update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func encodeScholarship(s *models.Scholarship) error {
	criteria, err := json.Marshal(s.Criteria)
	if err != nil {
		return fmt.Errorf("encode eligibility criteria: %w", err)
	}
	docs := s.RequiredDocuments
	if docs == nil {
		docs = []string{}
	}
	required, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode required documents: %w", err)
	}
	s.CriteriaRaw = criteria
	s.RequiredDocsRaw = required
	return nil
}

func decodeScholarship(s *models.Scholarship) error {
	if len(s.CriteriaRaw) > 0 {
		if err := json.Unmarshal(s.CriteriaRaw, &s.Criteria); err != nil {
			return fmt.Errorf("decode eligibility criteria for %s: %w", s.ID, err)
		}
	}
	if len(s.RequiredDocsRaw) > 0 {
		if err := json.Unmarshal(s.RequiredDocsRaw, &s.RequiredDocuments); err != nil {
			return fmt.Errorf("decode required documents for %s: %w", s.ID, err)
		}
	}
	return nil
}
