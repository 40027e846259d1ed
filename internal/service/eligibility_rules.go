package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// Fixed program rules that are not configurable per scholarship.
const (
	EconomicAssistanceIncomeCeiling    = 250000.0
	IndigencyCertificateValidityMonths = 6

	defaultAcademicMinUnits      = 18
	defaultAssistantshipMaxUnits = 21
	minMembershipMonths          = 1
	minFullArtsActivities        = 1
	minPartialArtsActivities     = 2
)

// EligibilityRuleSet evaluates candidates against a scholarship's rules. It is
// stateless; every method is a pure function of its arguments.
type EligibilityRuleSet struct{}

// NewEligibilityRuleSet returns the rule set.
func NewEligibilityRuleSet() EligibilityRuleSet {
	return EligibilityRuleSet{}
}

// Evaluate returns every violated rule. An empty result means eligible. asOf is
// the submission instant used for date-relative rules.
func (EligibilityRuleSet) Evaluate(scholarship *models.Scholarship, profile models.StudentProfile, data models.ApplicationData, asOf time.Time) []models.Issue {
	if scholarship == nil {
		return []models.Issue{{Code: models.IssueApplicationDataMissing, Message: "scholarship is required"}}
	}
	issues := make([]models.Issue, 0)
	issues = append(issues, baseIssues(scholarship, profile)...)

	if !dataMatches(scholarship.Type, data) {
		return append(issues, models.Issue{
			Code:    models.IssueApplicationDataMissing,
			Field:   "application_data",
			Message: fmt.Sprintf("application data does not match scholarship type %s", scholarship.Type),
		})
	}

	switch d := data.(type) {
	case models.AssistantshipData:
		issues = append(issues, assistantshipIssues(d)...)
	case models.PerformingArtsFullData:
		issues = append(issues, performingArtsFullIssues(d)...)
	case models.PerformingArtsPartialData:
		issues = append(issues, performingArtsPartialIssues(d)...)
	case models.EconomicAssistanceData:
		issues = append(issues, economicAssistanceIssues(d, asOf)...)
	}
	return issues
}

// Preview wraps Evaluate for read-only probes before submission.
func (r EligibilityRuleSet) Preview(scholarship *models.Scholarship, profile models.StudentProfile, data models.ApplicationData, asOf time.Time) models.EligibilityResult {
	issues := r.Evaluate(scholarship, profile, data, asOf)
	return models.EligibilityResult{Eligible: len(issues) == 0, Issues: issues}
}

func baseIssues(s *models.Scholarship, profile models.StudentProfile) []models.Issue {
	var issues []models.Issue
	criteria := s.Criteria

	required := criteria.EnrollmentStatus
	if required == "" {
		required = models.EnrollmentStatusEnrolled
	}
	if profile.EnrollmentStatus != required {
		issues = append(issues, models.Issue{
			Code:    models.IssueNotEnrolled,
			Field:   "enrollment_status",
			Message: fmt.Sprintf("enrollment status must be %s", required),
		})
	}

	minUnits, maxUnits := unitLimits(s)
	if minUnits > 0 && profile.UnitsEnrolled < minUnits {
		issues = append(issues, models.Issue{
			Code:    models.IssueUnitsBelowMinimum,
			Field:   "units_enrolled",
			Message: fmt.Sprintf("at least %d enrolled units required", minUnits),
		})
	}
	if maxUnits > 0 && profile.UnitsEnrolled > maxUnits {
		issues = append(issues, models.Issue{
			Code:    models.IssueUnitsAboveMaximum,
			Field:   "units_enrolled",
			Message: fmt.Sprintf("at most %d enrolled units allowed", maxUnits),
		})
	}

	if criteria.MinGWA != nil && profile.CurrentGWA < *criteria.MinGWA {
		issues = append(issues, models.Issue{
			Code:    models.IssueGWABelowMinimum,
			Field:   "current_gwa",
			Message: fmt.Sprintf("GWA %.2f is below the minimum of %.2f", profile.CurrentGWA, *criteria.MinGWA),
		})
	}
	if criteria.MaxGWA != nil && profile.CurrentGWA > *criteria.MaxGWA {
		issues = append(issues, models.Issue{
			Code:    models.IssueGWAAboveMaximum,
			Field:   "current_gwa",
			Message: fmt.Sprintf("GWA %.2f is above the maximum of %.2f", profile.CurrentGWA, *criteria.MaxGWA),
		})
	}
	return issues
}

// unitLimits resolves configured unit bounds, falling back to the program
// defaults for academic and assistantship scholarships.
func unitLimits(s *models.Scholarship) (minUnits, maxUnits int) {
	minUnits, maxUnits = s.Criteria.MinUnits, s.Criteria.MaxUnits
	switch s.Type {
	case models.ScholarshipTypeAcademicFull, models.ScholarshipTypeAcademicPartial:
		if minUnits == 0 {
			minUnits = defaultAcademicMinUnits
		}
	case models.ScholarshipTypeStudentAssistantship:
		if maxUnits == 0 {
			maxUnits = defaultAssistantshipMaxUnits
		}
	}
	return minUnits, maxUnits
}

func dataMatches(t models.ScholarshipType, data models.ApplicationData) bool {
	switch t {
	case models.ScholarshipTypeAcademicFull, models.ScholarshipTypeAcademicPartial:
		if data == nil {
			return true
		}
		_, ok := data.(models.AcademicData)
		return ok
	case models.ScholarshipTypeOthers:
		if data == nil {
			return true
		}
		_, ok := data.(models.OtherData)
		return ok
	}
	return data != nil && data.ScholarshipType() == t
}

func assistantshipIssues(d models.AssistantshipData) []models.Issue {
	var issues []models.Issue
	if !d.PreHiringCompleted {
		issues = append(issues, models.Issue{
			Code:    models.IssuePreHiringIncomplete,
			Field:   "pre_hiring_completed",
			Message: "pre-hiring requirements must be completed",
		})
	}
	if !d.ParentConsentProvided {
		issues = append(issues, models.Issue{
			Code:    models.IssueParentConsentMissing,
			Field:   "parent_consent_provided",
			Message: "parent consent is required",
		})
	}
	return issues
}

func performingArtsFullIssues(d models.PerformingArtsFullData) []models.Issue {
	var issues []models.Issue
	if months, ok := d.MembershipDuration.Int(); !ok || months < minMembershipMonths {
		issues = append(issues, models.Issue{
			Code:    models.IssueMembershipTooShort,
			Field:   "membership_duration",
			Message: fmt.Sprintf("membership of at least %d month is required", minMembershipMonths),
		})
	}
	if d.MajorActivitiesCount < minFullArtsActivities {
		issues = append(issues, models.Issue{
			Code:    models.IssueTooFewMajorActivities,
			Field:   "major_activities_count",
			Message: fmt.Sprintf("at least %d major activity is required", minFullArtsActivities),
		})
	}
	if !d.MajorPerformances {
		issues = append(issues, models.Issue{
			Code:    models.IssueNoMajorPerformances,
			Field:   "major_performances",
			Message: "participation in major performances is required",
		})
	}
	if !d.CoachRecommendationProvided {
		issues = append(issues, coachIssue())
	}
	return issues
}

func performingArtsPartialIssues(d models.PerformingArtsPartialData) []models.Issue {
	var issues []models.Issue
	if d.MajorActivitiesCount < minPartialArtsActivities {
		issues = append(issues, models.Issue{
			Code:    models.IssueTooFewMajorActivities,
			Field:   "major_activities_count",
			Message: fmt.Sprintf("at least %d major activities are required", minPartialArtsActivities),
		})
	}
	if !d.CoachRecommendationProvided {
		issues = append(issues, coachIssue())
	}
	return issues
}

func coachIssue() models.Issue {
	return models.Issue{
		Code:    models.IssueCoachRecommendation,
		Field:   "coach_recommendation_provided",
		Message: "a coach recommendation is required",
	}
}

func economicAssistanceIssues(d models.EconomicAssistanceData, asOf time.Time) []models.Issue {
	var issues []models.Issue
	if d.FamilyIncome > EconomicAssistanceIncomeCeiling {
		issues = append(issues, models.Issue{
			Code:    models.IssueFamilyIncomeTooHigh,
			Field:   "family_income",
			Message: "family income exceeds ₱250,000 ceiling",
		})
	}
	if !certificateIsRecent(d.IndigencyCertificateIssueDate, asOf) {
		issues = append(issues, models.Issue{
			Code:    models.IssueIndigencyCertificate,
			Field:   "indigency_certificate_issue_date",
			Message: fmt.Sprintf("indigency certificate must be issued within the last %d months", IndigencyCertificateValidityMonths),
		})
	}
	return issues
}

// certificateIsRecent compares calendar dates in asOf's location; both ends of
// the window are inclusive and future-dated certificates are rejected.
func certificateIsRecent(issued, asOf time.Time) bool {
	if issued.IsZero() {
		return false
	}
	loc := asOf.Location()
	day := func(t time.Time) time.Time {
		y, m, d := t.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	issuedDay := day(issued)
	today := day(asOf)
	earliest := today.AddDate(0, -IndigencyCertificateValidityMonths, 0)
	return !issuedDay.Before(earliest) && !issuedDay.After(today)
}
