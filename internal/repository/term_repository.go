package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarship-api/internal/models"
)

const termColumns = `id, semester, academic_year, start_date, end_date`

// TermRepository reads the institutional academic calendar used for renewal windows.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// ListStartingAfter returns terms whose start date is on or after from, ordered by start date.
func (r *TermRepository) ListStartingAfter(ctx context.Context, from time.Time, limit int) ([]models.AcademicTerm, error) {
	if limit <= 0 || limit > 20 {
		limit = 4
	}
	query := fmt.Sprintf(`SELECT %s FROM academic_terms WHERE start_date >= $1 ORDER BY start_date ASC LIMIT %d`, termColumns, limit)
	var terms []models.AcademicTerm
	if err := r.db.SelectContext(ctx, &terms, query, from); err != nil {
		return nil, fmt.Errorf("list upcoming terms: %w", err)
	}
	return terms, nil
}

// FindByKey loads the term for a semester and academic year.
func (r *TermRepository) FindByKey(ctx context.Context, key models.TermKey) (*models.AcademicTerm, error) {
	const query = `SELECT ` + termColumns + ` FROM academic_terms WHERE semester = $1 AND academic_year = $2`
	var term models.AcademicTerm
	if err := r.db.GetContext(ctx, &term, query, key.Semester, key.Year); err != nil {
		return nil, err
	}
	return &term, nil
}

// Create inserts a calendar entry.
func (r *TermRepository) Create(ctx context.Context, term *models.AcademicTerm) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	const query = `INSERT INTO academic_terms (id, semester, academic_year, start_date, end_date)
	VALUES (:id, :semester, :academic_year, :start_date, :end_date)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("create academic term: %w", err)
	}
	return nil
}
