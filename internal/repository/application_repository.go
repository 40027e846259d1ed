package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/pkg/database"
)

const applicationColumns = `id, student_id, scholarship_id, scholarship_type, status, application_data, uploaded_documents,
       applied_at, verified_at, approved_at, rejected_at, ended_at, verifier_comments, committee_recommendation,
       admin_remarks, amount_received, last_stipend_date, version, created_at, updated_at`

// ApplicationRepository persists scholarship applications. Every status write
// is guarded by the row version so concurrent staff actions cannot both commit.
type ApplicationRepository struct {
	db    *sqlx.DB
	slots *SlotRepository
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB, slots *SlotRepository) *ApplicationRepository {
	if slots == nil {
		slots = NewSlotRepository(db)
	}
	return &ApplicationRepository{db: db, slots: slots}
}

// Create inserts a new application. A partial unique index on
// (student_id, scholarship_id) for non-terminal rows backs the one-active rule.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.ScholarshipApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	if app.Status == "" {
		app.Status = models.ApplicationStatusDraft
	}
	if app.Version == 0 {
		app.Version = 1
	}
	if err := encodeApplication(app); err != nil {
		return err
	}
	const query = `INSERT INTO scholarship_applications (` + applicationColumns + `)
	VALUES (:id, :student_id, :scholarship_id, :scholarship_type, :status, :application_data, :uploaded_documents,
	        :applied_at, :verified_at, :approved_at, :rejected_at, :ended_at, :verifier_comments, :committee_recommendation,
	        :admin_remarks, :amount_received, :last_stipend_date, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetByID fetches an application by identifier.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.ScholarshipApplication, error) {
	const query = `SELECT ` + applicationColumns + ` FROM scholarship_applications WHERE id = $1`
	var app models.ScholarshipApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	if err := decodeApplication(&app); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindActive returns the non-terminal application for the pair, or sql.ErrNoRows.
func (r *ApplicationRepository) FindActive(ctx context.Context, studentID, scholarshipID string) (*models.ScholarshipApplication, error) {
	const query = `SELECT ` + applicationColumns + ` FROM scholarship_applications
	WHERE student_id = $1 AND scholarship_id = $2 AND status = ANY($3)
	ORDER BY created_at DESC LIMIT 1`
	var app models.ScholarshipApplication
	if err := r.db.GetContext(ctx, &app, query, studentID, scholarshipID, pq.Array(statusStrings(models.ActiveApplicationStatuses))); err != nil {
		return nil, err
	}
	if err := decodeApplication(&app); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns applications matching the filter with the total count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ScholarshipApplication, int, error) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.ScholarshipID != "" {
		args = append(args, filter.ScholarshipID)
		conditions = append(conditions, fmt.Sprintf("scholarship_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		args = append(args, pq.Array(statusStrings(filter.Status)))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
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
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM scholarship_applications%s ORDER BY created_at DESC LIMIT %d OFFSET %d", applicationColumns, clause, size, offset)
	var apps []models.ScholarshipApplication
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	for i := range apps {
		if err := decodeApplication(&apps[i]); err != nil {
			return nil, 0, err
		}
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM scholarship_applications"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return apps, total, nil
}

// SaveTransitionParams describes one atomic application write.
type SaveTransitionParams struct {
	Application     *models.ScholarshipApplication
	ExpectedVersion int
	Slot            SlotChange
	Stipend         *models.StipendDisbursement
}

// SaveTransition writes the application, the slot counter change and an
// optional stipend ledger entry in one transaction. It returns ErrStaleVersion
// when another writer committed first and ErrNoSlotAvailable when a
// reservation finds the scholarship full.
func (r *ApplicationRepository) SaveTransition(ctx context.Context, params SaveTransitionParams) error {
	app := params.Application
	if app == nil {
		return fmt.Errorf("save transition: application is required")
	}
	app.UpdatedAt = time.Now().UTC()
	if err := encodeApplication(app); err != nil {
		return err
	}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.slots.Apply(ctx, tx, app.ScholarshipID, params.Slot); err != nil {
			return err
		}

		const query = `UPDATE scholarship_applications SET status = :status, application_data = :application_data,
		uploaded_documents = :uploaded_documents, applied_at = :applied_at, verified_at = :verified_at,
		approved_at = :approved_at, rejected_at = :rejected_at, ended_at = :ended_at,
		verifier_comments = :verifier_comments, committee_recommendation = :committee_recommendation,
		admin_remarks = :admin_remarks, amount_received = :amount_received, last_stipend_date = :last_stipend_date,
		version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :expected_version`
		result, err := tx.NamedExecContext(ctx, query, transitionArgs(app, params.ExpectedVersion))
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check application update rows: %w", err)
		}
		if rows == 0 {
			return ErrStaleVersion
		}

		if params.Stipend != nil {
			if err := insertStipend(ctx, tx, params.Stipend); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	app.Version = params.ExpectedVersion + 1
	return nil
}

func transitionArgs(app *models.ScholarshipApplication, expectedVersion int) map[string]interface{} {
	return map[string]interface{}{
		"id":                       app.ID,
		"status":                   app.Status,
		"application_data":         app.DataRaw,
		"uploaded_documents":       app.DocumentsRaw,
		"applied_at":               app.AppliedAt,
		"verified_at":              app.VerifiedAt,
		"approved_at":              app.ApprovedAt,
		"rejected_at":              app.RejectedAt,
		"ended_at":                 app.EndedAt,
		"verifier_comments":        app.VerifierComments,
		"committee_recommendation": app.CommitteeRecommendation,
		"admin_remarks":            app.AdminRemarks,
		"amount_received":          app.AmountReceived,
		"last_stipend_date":        app.LastStipendDate,
		"updated_at":               app.UpdatedAt,
		"expected_version":         expectedVersion,
	}
}

func encodeApplication(app *models.ScholarshipApplication) error {
	data := []byte("{}")
	if app.Data != nil {
		raw, err := json.Marshal(app.Data)
		if err != nil {
			return fmt.Errorf("encode application data: %w", err)
		}
		data = raw
	}
	docs := app.Documents
	if docs == nil {
		docs = models.DocumentSet{}
	}
	rawDocs, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode uploaded documents: %w", err)
	}
	app.DataRaw = data
	app.DocumentsRaw = rawDocs
	return nil
}

func decodeApplication(app *models.ScholarshipApplication) error {
	data, err := models.DecodeApplicationData(app.ScholarshipType, app.DataRaw)
	if err != nil {
		return fmt.Errorf("decode application %s: %w", app.ID, err)
	}
	app.Data = data
	app.Documents = models.DocumentSet{}
	if len(app.DocumentsRaw) > 0 {
		if err := json.Unmarshal(app.DocumentsRaw, &app.Documents); err != nil {
			return fmt.Errorf("decode documents for application %s: %w", app.ID, err)
		}
	}
	return nil
}

func statusStrings(statuses []models.ApplicationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
