package models

import "time"

// ApplicationStatus is the lifecycle state of a scholarship application.
type ApplicationStatus string

const (
	ApplicationStatusDraft             ApplicationStatus = "draft"
	ApplicationStatusSubmitted         ApplicationStatus = "submitted"
	ApplicationStatusUnderVerification ApplicationStatus = "under_verification"
	ApplicationStatusVerified          ApplicationStatus = "verified"
	ApplicationStatusIncomplete        ApplicationStatus = "incomplete"
	ApplicationStatusUnderEvaluation   ApplicationStatus = "under_evaluation"
	ApplicationStatusApproved          ApplicationStatus = "approved"
	ApplicationStatusRejected          ApplicationStatus = "rejected"
	ApplicationStatusEnd               ApplicationStatus = "end"
)

// Terminal reports whether no further status mutation is permitted.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusEnd
}

// Active reports whether the application counts toward the one-active-application rule.
func (s ApplicationStatus) Active() bool {
	return !s.Terminal()
}

// ActiveApplicationStatuses lists every non-terminal status.
var ActiveApplicationStatuses = []ApplicationStatus{
	ApplicationStatusDraft,
	ApplicationStatusSubmitted,
	ApplicationStatusUnderVerification,
	ApplicationStatusVerified,
	ApplicationStatusIncomplete,
	ApplicationStatusUnderEvaluation,
	ApplicationStatusApproved,
}

// ScholarshipApplication is a student's application to one scholarship.
type ScholarshipApplication struct {
	ID                      string            `db:"id" json:"id"`
	StudentID               string            `db:"student_id" json:"student_id"`
	ScholarshipID           string            `db:"scholarship_id" json:"scholarship_id"`
	ScholarshipType         ScholarshipType   `db:"scholarship_type" json:"scholarship_type"`
	Status                  ApplicationStatus `db:"status" json:"status"`
	Data                    ApplicationData   `db:"-" json:"application_data"`
	DataRaw                 []byte            `db:"application_data" json:"-"`
	Documents               DocumentSet       `db:"-" json:"uploaded_documents"`
	DocumentsRaw            []byte            `db:"uploaded_documents" json:"-"`
	AppliedAt               *time.Time        `db:"applied_at" json:"applied_at,omitempty"`
	VerifiedAt              *time.Time        `db:"verified_at" json:"verified_at,omitempty"`
	ApprovedAt              *time.Time        `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt              *time.Time        `db:"rejected_at" json:"rejected_at,omitempty"`
	EndedAt                 *time.Time        `db:"ended_at" json:"ended_at,omitempty"`
	VerifierComments        *string           `db:"verifier_comments" json:"verifier_comments,omitempty"`
	CommitteeRecommendation *string           `db:"committee_recommendation" json:"committee_recommendation,omitempty"`
	AdminRemarks            *string           `db:"admin_remarks" json:"admin_remarks,omitempty"`
	AmountReceived          float64           `db:"amount_received" json:"amount_received"`
	LastStipendDate         *time.Time        `db:"last_stipend_date" json:"last_stipend_date,omitempty"`
	Version                 int               `db:"version" json:"version"`
	CreatedAt               time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time         `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so a candidate transition can be built without
// touching the loaded state.
func (a *ScholarshipApplication) Clone() *ScholarshipApplication {
	if a == nil {
		return nil
	}
	c := *a
	c.Documents = a.Documents.Clone()
	c.DataRaw = append([]byte(nil), a.DataRaw...)
	c.DocumentsRaw = append([]byte(nil), a.DocumentsRaw...)
	return &c
}

// ApplicationFilter constrains listing queries.
type ApplicationFilter struct {
	StudentID     string
	ScholarshipID string
	Status        []ApplicationStatus
	Page          int
	PageSize      int
}
