package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/models"
)

func scholarshipOfType(t models.ScholarshipType) *models.Scholarship {
	return &models.Scholarship{ID: "sch", Type: t, Status: models.ScholarshipStatusActive}
}

func passingCandidate(t models.ScholarshipType) (*models.Scholarship, models.StudentProfile, models.ApplicationData) {
	sch := scholarshipOfType(t)
	profile := eligibleProfile()
	switch t {
	case models.ScholarshipTypeStudentAssistantship:
		profile.UnitsEnrolled = 18
		return sch, profile, models.AssistantshipData{PreHiringCompleted: true, ParentConsentProvided: true}
	case models.ScholarshipTypePerformingArtsFull:
		return sch, profile, models.PerformingArtsFullData{MembershipDuration: "12 months", MajorActivitiesCount: 1, MajorPerformances: true, CoachRecommendationProvided: true}
	case models.ScholarshipTypePerformingArtsPartial:
		return sch, profile, models.PerformingArtsPartialData{MajorActivitiesCount: 2, CoachRecommendationProvided: true}
	case models.ScholarshipTypeEconomicAssistance:
		return sch, profile, models.EconomicAssistanceData{FamilyIncome: 180000, IndigencyCertificateIssueDate: fixedNow.AddDate(0, -2, 0)}
	case models.ScholarshipTypeOthers:
		return sch, profile, models.OtherData{}
	}
	sch.Criteria = models.EligibilityCriteria{MinGWA: floatPtr(1.0), MaxGWA: floatPtr(1.75)}
	return sch, profile, models.AcademicData{Kind: t}
}

func TestEligibilityPassingCandidates(t *testing.T) {
	rules := NewEligibilityRuleSet()
	for _, typ := range []models.ScholarshipType{
		models.ScholarshipTypeAcademicFull, models.ScholarshipTypeAcademicPartial, models.ScholarshipTypeStudentAssistantship,
		models.ScholarshipTypePerformingArtsFull, models.ScholarshipTypePerformingArtsPartial,
		models.ScholarshipTypeEconomicAssistance, models.ScholarshipTypeOthers,
	} {
		t.Run(string(typ), func(t *testing.T) {
			sch, profile, data := passingCandidate(typ)
			assert.Empty(t, rules.Evaluate(sch, profile, data, fixedNow))
			result := rules.Preview(sch, profile, data, fixedNow)
			assert.True(t, result.Eligible)
		})
	}
}

func TestEligibilitySingleFlipYieldsSingleIssue(t *testing.T) {
	cases := []struct {
		name   string
		typ    models.ScholarshipType
		mutate func(*models.Scholarship, *models.StudentProfile, *models.ApplicationData)
		want   models.IssueCode
	}{
		{"academic not enrolled", models.ScholarshipTypeAcademicFull, func(_ *models.Scholarship, p *models.StudentProfile, _ *models.ApplicationData) {
			p.EnrollmentStatus = models.EnrollmentStatusOnLeave
		}, models.IssueNotEnrolled},
		{"academic units", models.ScholarshipTypeAcademicFull, func(_ *models.Scholarship, p *models.StudentProfile, _ *models.ApplicationData) {
			p.UnitsEnrolled = 17
		}, models.IssueUnitsBelowMinimum},
		{"academic gwa below", models.ScholarshipTypeAcademicPartial, func(_ *models.Scholarship, p *models.StudentProfile, _ *models.ApplicationData) {
			p.CurrentGWA = 0.9
		}, models.IssueGWABelowMinimum},
		{"academic gwa above", models.ScholarshipTypeAcademicFull, func(_ *models.Scholarship, p *models.StudentProfile, _ *models.ApplicationData) {
			p.CurrentGWA = 2.0
		}, models.IssueGWAAboveMaximum},
		{"assistantship units", models.ScholarshipTypeStudentAssistantship, func(_ *models.Scholarship, p *models.StudentProfile, _ *models.ApplicationData) {
			p.UnitsEnrolled = 22
		}, models.IssueUnitsAboveMaximum},
		{"assistantship pre-hiring", models.ScholarshipTypeStudentAssistantship, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.AssistantshipData)
			v.PreHiringCompleted = false
			*d = v
		}, models.IssuePreHiringIncomplete},
		{"assistantship consent", models.ScholarshipTypeStudentAssistantship, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.AssistantshipData)
			v.ParentConsentProvided = false
			*d = v
		}, models.IssueParentConsentMissing},
		{"arts full membership", models.ScholarshipTypePerformingArtsFull, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.PerformingArtsFullData)
			v.MembershipDuration = "0"
			*d = v
		}, models.IssueMembershipTooShort},
		{"arts full activities", models.ScholarshipTypePerformingArtsFull, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.PerformingArtsFullData)
			v.MajorActivitiesCount = 0
			*d = v
		}, models.IssueTooFewMajorActivities},
		{"arts full performances", models.ScholarshipTypePerformingArtsFull, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.PerformingArtsFullData)
			v.MajorPerformances = false
			*d = v
		}, models.IssueNoMajorPerformances},
		{"arts full coach", models.ScholarshipTypePerformingArtsFull, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.PerformingArtsFullData)
			v.CoachRecommendationProvided = false
			*d = v
		}, models.IssueCoachRecommendation},
		{"arts partial activities", models.ScholarshipTypePerformingArtsPartial, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.PerformingArtsPartialData)
			v.MajorActivitiesCount = 1
			*d = v
		}, models.IssueTooFewMajorActivities},
		{"arts partial coach", models.ScholarshipTypePerformingArtsPartial, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.PerformingArtsPartialData)
			v.CoachRecommendationProvided = false
			*d = v
		}, models.IssueCoachRecommendation},
		{"economic income", models.ScholarshipTypeEconomicAssistance, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.EconomicAssistanceData)
			v.FamilyIncome = 250000.01
			*d = v
		}, models.IssueFamilyIncomeTooHigh},
		{"economic certificate", models.ScholarshipTypeEconomicAssistance, func(_ *models.Scholarship, _ *models.StudentProfile, d *models.ApplicationData) {
			v := (*d).(models.EconomicAssistanceData)
			v.IndigencyCertificateIssueDate = fixedNow.AddDate(0, -7, 0)
			*d = v
		}, models.IssueIndigencyCertificate},
		{"others enrollment", models.ScholarshipTypeOthers, func(s *models.Scholarship, p *models.StudentProfile, _ *models.ApplicationData) {
			p.EnrollmentStatus = models.EnrollmentStatusNotEnrolled
		}, models.IssueNotEnrolled},
	}

	rules := NewEligibilityRuleSet()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sch, profile, data := passingCandidate(tc.typ)
			tc.mutate(sch, &profile, &data)
			issues := rules.Evaluate(sch, profile, data, fixedNow)
			require.Len(t, issues, 1)
			assert.Equal(t, tc.want, issues[0].Code)
		})
	}
}

func TestEligibilityEconomicIncomeMessage(t *testing.T) {
	sch, profile, _ := passingCandidate(models.ScholarshipTypeEconomicAssistance)
	data := models.EconomicAssistanceData{FamilyIncome: 300000, IndigencyCertificateIssueDate: fixedNow.AddDate(0, -1, 0)}

	result := NewEligibilityRuleSet().Preview(sch, profile, data, fixedNow)

	assert.False(t, result.Eligible)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "family income exceeds ₱250,000 ceiling", result.Issues[0].Message)
}

func TestEligibilityIncomeAtCeilingPasses(t *testing.T) {
	sch, profile, _ := passingCandidate(models.ScholarshipTypeEconomicAssistance)
	data := models.EconomicAssistanceData{FamilyIncome: EconomicAssistanceIncomeCeiling, IndigencyCertificateIssueDate: fixedNow}
	assert.Empty(t, NewEligibilityRuleSet().Evaluate(sch, profile, data, fixedNow))
}

func TestCertificateWindowBoundaries(t *testing.T) {
	asOf := time.Date(2024, time.August, 31, 15, 0, 0, 0, time.UTC)
	assert.True(t, certificateIsRecent(time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), asOf))
	assert.True(t, certificateIsRecent(asOf, asOf))
	assert.False(t, certificateIsRecent(time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC), asOf))
	assert.False(t, certificateIsRecent(asOf.AddDate(0, 0, 1), asOf))
	assert.False(t, certificateIsRecent(time.Time{}, asOf))
}

func TestEligibilityMismatchedData(t *testing.T) {
	sch := scholarshipOfType(models.ScholarshipTypeEconomicAssistance)
	issues := NewEligibilityRuleSet().Evaluate(sch, eligibleProfile(), models.AssistantshipData{}, fixedNow)
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueApplicationDataMissing, issues[0].Code)
}

func TestEligibilityConfiguredUnitsOverrideDefaults(t *testing.T) {
	sch, profile, data := passingCandidate(models.ScholarshipTypeAcademicFull)
	sch.Criteria.MinUnits = 12
	profile.UnitsEnrolled = 15
	assert.Empty(t, NewEligibilityRuleSet().Evaluate(sch, profile, data, fixedNow))
}
