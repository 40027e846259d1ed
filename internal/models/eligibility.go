package models

// StudentProfile is the academic standing supplied by the registrar for a candidate.
type StudentProfile struct {
	StudentID        string           `json:"student_id"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status" validate:"required"`
	UnitsEnrolled    int              `json:"units_enrolled" validate:"gte=0"`
	CurrentGWA       float64          `json:"current_gwa" validate:"gte=0"`
}

// IssueCode identifies one eligibility rule violation.
type IssueCode string

const (
	IssueNotEnrolled            IssueCode = "NOT_ENROLLED"
	IssueUnitsBelowMinimum      IssueCode = "UNITS_BELOW_MINIMUM"
	IssueUnitsAboveMaximum      IssueCode = "UNITS_ABOVE_MAXIMUM"
	IssueGWABelowMinimum        IssueCode = "GWA_BELOW_MINIMUM"
	IssueGWAAboveMaximum        IssueCode = "GWA_ABOVE_MAXIMUM"
	IssuePreHiringIncomplete    IssueCode = "PRE_HIRING_INCOMPLETE"
	IssueParentConsentMissing   IssueCode = "PARENT_CONSENT_MISSING"
	IssueMembershipTooShort     IssueCode = "MEMBERSHIP_TOO_SHORT"
	IssueTooFewMajorActivities  IssueCode = "TOO_FEW_MAJOR_ACTIVITIES"
	IssueNoMajorPerformances    IssueCode = "NO_MAJOR_PERFORMANCES"
	IssueCoachRecommendation    IssueCode = "COACH_RECOMMENDATION_MISSING"
	IssueFamilyIncomeTooHigh    IssueCode = "FAMILY_INCOME_TOO_HIGH"
	IssueIndigencyCertificate   IssueCode = "INDIGENCY_CERTIFICATE_STALE"
	IssueApplicationDataMissing IssueCode = "APPLICATION_DATA_MISMATCH"
	IssueMissingDocument        IssueCode = "MISSING_DOCUMENT"
	IssueRejectedDocument       IssueCode = "REJECTED_DOCUMENT"
	IssuePendingDocument        IssueCode = "PENDING_DOCUMENT"
	IssueNotAcceptingApplicants IssueCode = "NOT_ACCEPTING_APPLICATIONS"
	IssueInvalidField           IssueCode = "INVALID_FIELD"
	IssueUnknownDocumentType    IssueCode = "UNKNOWN_DOCUMENT_TYPE"
)

// Issue is a human-readable rule violation.
type Issue struct {
	Code    IssueCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

// EligibilityResult is returned by eligibility previews.
type EligibilityResult struct {
	Eligible bool    `json:"eligible"`
	Issues   []Issue `json:"issues"`
}
