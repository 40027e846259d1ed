package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ApplicationData is the type-specific answer set of an application. Each
// scholarship type has exactly one concrete variant.
type ApplicationData interface {
	ScholarshipType() ScholarshipType
}

// AcademicData answers academic_full and academic_partial applications; the
// rules read GWA and units from the student profile.
type AcademicData struct {
	Kind               ScholarshipType `json:"-"`
	StatementOfPurpose string          `json:"statement_of_purpose,omitempty"`
	Honors             []string        `json:"honors,omitempty"`
}

func (d AcademicData) ScholarshipType() ScholarshipType {
	if d.Kind == "" {
		return ScholarshipTypeAcademicFull
	}
	return d.Kind
}

// AssistantshipData answers student_assistantship applications.
type AssistantshipData struct {
	PreHiringCompleted    bool   `json:"pre_hiring_completed"`
	ParentConsentProvided bool   `json:"parent_consent_provided"`
	PreferredOffice       string `json:"preferred_office,omitempty"`
}

func (AssistantshipData) ScholarshipType() ScholarshipType {
	return ScholarshipTypeStudentAssistantship
}

// PerformingArtsFullData answers performing_arts_full applications.
type PerformingArtsFullData struct {
	Group                       string `json:"group,omitempty"`
	MembershipDuration          Months `json:"membership_duration"`
	MajorActivitiesCount        int    `json:"major_activities_count" validate:"gte=0"`
	MajorPerformances           bool   `json:"major_performances"`
	CoachRecommendationProvided bool   `json:"coach_recommendation_provided"`
}

func (PerformingArtsFullData) ScholarshipType() ScholarshipType {
	return ScholarshipTypePerformingArtsFull
}

// PerformingArtsPartialData answers performing_arts_partial applications.
type PerformingArtsPartialData struct {
	Group                       string `json:"group,omitempty"`
	MajorActivitiesCount        int    `json:"major_activities_count" validate:"gte=0"`
	CoachRecommendationProvided bool   `json:"coach_recommendation_provided"`
}

func (PerformingArtsPartialData) ScholarshipType() ScholarshipType {
	return ScholarshipTypePerformingArtsPartial
}

// EconomicAssistanceData answers economic_assistance applications.
type EconomicAssistanceData struct {
	FamilyIncome                  float64   `json:"family_income" validate:"gte=0"`
	IndigencyCertificateIssueDate time.Time `json:"indigency_certificate_issue_date" validate:"required"`
}

func (EconomicAssistanceData) ScholarshipType() ScholarshipType {
	return ScholarshipTypeEconomicAssistance
}

// OtherData answers scholarships of type others.
type OtherData struct {
	Details map[string]string `json:"details,omitempty"`
}

func (OtherData) ScholarshipType() ScholarshipType {
	return ScholarshipTypeOthers
}

// Months is a month count submitted either as a JSON number or as free text
// such as "12" or "18 months".
type Months string

// UnmarshalJSON accepts numbers and strings.
func (m *Months) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*m = ""
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*m = Months(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("membership duration must be a number or string: %w", err)
	}
	*m = Months(n.String())
	return nil
}

// Int parses the leading integer of the value. Fractional month counts are
// truncated.
func (m Months) Int() (int, bool) {
	s := strings.TrimSpace(string(m))
	if s == "" {
		return 0, false
	}
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || s[end] == '.' || (end == 0 && s[end] == '-')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// NewApplicationData returns an empty variant for the scholarship type.
func NewApplicationData(t ScholarshipType) (ApplicationData, error) {
	switch t {
	case ScholarshipTypeAcademicFull, ScholarshipTypeAcademicPartial:
		return &AcademicData{Kind: t}, nil
	case ScholarshipTypeStudentAssistantship:
		return &AssistantshipData{}, nil
	case ScholarshipTypePerformingArtsFull:
		return &PerformingArtsFullData{}, nil
	case ScholarshipTypePerformingArtsPartial:
		return &PerformingArtsPartialData{}, nil
	case ScholarshipTypeEconomicAssistance:
		return &EconomicAssistanceData{}, nil
	case ScholarshipTypeOthers:
		return &OtherData{}, nil
	}
	return nil, fmt.Errorf("unknown scholarship type %q", t)
}

// DecodeApplicationData decodes raw answers into the variant for t.
func DecodeApplicationData(t ScholarshipType, raw []byte) (ApplicationData, error) {
	data, err := NewApplicationData(t)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, data); err != nil {
			return nil, fmt.Errorf("decode %s application data: %w", t, err)
		}
	}
	return deref(data), nil
}

// deref turns the pointer variants used for decoding into values so callers
// can type-switch on a single form.
func deref(data ApplicationData) ApplicationData {
	switch v := data.(type) {
	case *AcademicData:
		return *v
	case *AssistantshipData:
		return *v
	case *PerformingArtsFullData:
		return *v
	case *PerformingArtsPartialData:
		return *v
	case *EconomicAssistanceData:
		return *v
	case *OtherData:
		return *v
	}
	return data
}
