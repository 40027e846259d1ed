package models

import "time"

// ScholarshipType selects the eligibility rules and application_data shape.
type ScholarshipType string

const (
	ScholarshipTypeAcademicFull          ScholarshipType = "academic_full"
	ScholarshipTypeAcademicPartial       ScholarshipType = "academic_partial"
	ScholarshipTypeStudentAssistantship  ScholarshipType = "student_assistantship"
	ScholarshipTypePerformingArtsFull    ScholarshipType = "performing_arts_full"
	ScholarshipTypePerformingArtsPartial ScholarshipType = "performing_arts_partial"
	ScholarshipTypeEconomicAssistance    ScholarshipType = "economic_assistance"
	ScholarshipTypeOthers                ScholarshipType = "others"
)

// Valid reports whether the type is one of the known scholarship types.
func (t ScholarshipType) Valid() bool {
	switch t {
	case ScholarshipTypeAcademicFull, ScholarshipTypeAcademicPartial, ScholarshipTypeStudentAssistantship,
		ScholarshipTypePerformingArtsFull, ScholarshipTypePerformingArtsPartial,
		ScholarshipTypeEconomicAssistance, ScholarshipTypeOthers:
		return true
	}
	return false
}

// ScholarshipStatus toggles whether a scholarship accepts applications.
type ScholarshipStatus string

const (
	ScholarshipStatusActive   ScholarshipStatus = "active"
	ScholarshipStatusInactive ScholarshipStatus = "inactive"
)

// EnrollmentStatus describes a student's registration for the current term.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled    EnrollmentStatus = "enrolled"
	EnrollmentStatusNotEnrolled EnrollmentStatus = "not_enrolled"
	EnrollmentStatusOnLeave     EnrollmentStatus = "on_leave"
)

// EligibilityCriteria holds staff-configured thresholds. Zero values mean
// "not configured"; unit limits then fall back to the program defaults.
type EligibilityCriteria struct {
	MinGWA           *float64         `json:"min_gwa,omitempty"`
	MaxGWA           *float64         `json:"max_gwa,omitempty"`
	MinUnits         int              `json:"min_units,omitempty"`
	MaxUnits         int              `json:"max_units,omitempty"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status,omitempty"`
	MinRenewalGWA    *float64         `json:"min_renewal_gwa,omitempty"`
}

// Scholarship is staff-authored program configuration.
type Scholarship struct {
	ID                  string              `db:"id" json:"id"`
	Name                string              `db:"name" json:"name"`
	Type                ScholarshipType     `db:"type" json:"type"`
	Status              ScholarshipStatus   `db:"status" json:"status"`
	ApplicationDeadline time.Time           `db:"application_deadline" json:"application_deadline"`
	Slots               int                 `db:"slots" json:"slots"`
	ApprovedCount       int                 `db:"approved_count" json:"approved_count"`
	StipendAmount       float64             `db:"stipend_amount" json:"stipend_amount"`
	Criteria            EligibilityCriteria `db:"-" json:"eligibility_criteria"`
	CriteriaRaw         []byte              `db:"eligibility_criteria" json:"-"`
	RequiredDocuments   []string            `db:"-" json:"required_documents"`
	RequiredDocsRaw     []byte              `db:"required_documents" json:"-"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

// AcceptingApplications reports whether a submission at the given instant is allowed.
// The deadline day itself is inclusive.
func (s *Scholarship) AcceptingApplications(at time.Time) bool {
	if s == nil || s.Status != ScholarshipStatusActive {
		return false
	}
	if s.ApplicationDeadline.IsZero() {
		return true
	}
	y, m, d := s.ApplicationDeadline.Date()
	endOfDay := time.Date(y, m, d, 23, 59, 59, int(time.Second-1), s.ApplicationDeadline.Location())
	return !at.After(endOfDay)
}

// RequiresDocument reports whether docType is part of the required checklist.
func (s *Scholarship) RequiresDocument(docType string) bool {
	for _, required := range s.RequiredDocuments {
		if required == docType {
			return true
		}
	}
	return false
}

// SlotUsage summarises capacity consumption for a scholarship.
type SlotUsage struct {
	ScholarshipID string `db:"id" json:"scholarship_id"`
	Slots         int    `db:"slots" json:"slots"`
	Approved      int    `db:"approved_count" json:"approved"`
	Unlimited     bool   `db:"-" json:"unlimited"`
	Available     int    `db:"-" json:"available"`
}

// Normalize fills the derived fields.
func (u *SlotUsage) Normalize() {
	u.Unlimited = u.Slots == 0
	if u.Unlimited {
		u.Available = -1
		return
	}
	u.Available = u.Slots - u.Approved
	if u.Available < 0 {
		u.Available = 0
	}
}

// ScholarshipFilter constrains listing queries.
type ScholarshipFilter struct {
	Type     ScholarshipType
	Status   ScholarshipStatus
	Page     int
	PageSize int
}
