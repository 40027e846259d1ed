package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthsAcceptsNumbersAndText(t *testing.T) {
	var data PerformingArtsFullData
	require.NoError(t, json.Unmarshal([]byte(`{"membership_duration": 14}`), &data))
	n, ok := data.MembershipDuration.Int()
	assert.True(t, ok)
	assert.Equal(t, 14, n)

	require.NoError(t, json.Unmarshal([]byte(`{"membership_duration": " 18 months "}`), &data))
	n, ok = data.MembershipDuration.Int()
	assert.True(t, ok)
	assert.Equal(t, 18, n)

	require.Error(t, json.Unmarshal([]byte(`{"membership_duration": true}`), &data))
}

func TestMonthsInt(t *testing.T) {
	cases := map[Months]struct {
		value int
		ok    bool
	}{
		"12":     {12, true},
		"12.7":   {12, true},
		"-3":     {-3, true},
		"":       {0, false},
		"a year": {0, false},
		"1.2.3":  {0, false},
	}
	for input, want := range cases {
		got, ok := input.Int()
		assert.Equal(t, want.ok, ok, string(input))
		assert.Equal(t, want.value, got, string(input))
	}
}

func TestDecodeApplicationDataVariants(t *testing.T) {
	data, err := DecodeApplicationData(ScholarshipTypeEconomicAssistance,
		[]byte(`{"family_income": 180000, "indigency_certificate_issue_date": "2024-03-01T00:00:00Z"}`))
	require.NoError(t, err)
	econ, ok := data.(EconomicAssistanceData)
	require.True(t, ok)
	assert.Equal(t, 180000.0, econ.FamilyIncome)
	assert.True(t, econ.IndigencyCertificateIssueDate.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))

	data, err = DecodeApplicationData(ScholarshipTypeAcademicPartial, nil)
	require.NoError(t, err)
	academic, ok := data.(AcademicData)
	require.True(t, ok)
	assert.Equal(t, ScholarshipTypeAcademicPartial, academic.ScholarshipType())

	data, err = DecodeApplicationData(ScholarshipTypeStudentAssistantship, []byte("null"))
	require.NoError(t, err)
	assert.Equal(t, AssistantshipData{}, data)
}

func TestDecodeApplicationDataErrors(t *testing.T) {
	_, err := DecodeApplicationData("sports", []byte(`{}`))
	assert.Error(t, err)

	_, err = DecodeApplicationData(ScholarshipTypeEconomicAssistance, []byte(`{"family_income": "lots"}`))
	assert.Error(t, err)
}

func TestAcceptingApplicationsDeadlineDayInclusive(t *testing.T) {
	s := &Scholarship{
		Status:              ScholarshipStatusActive,
		ApplicationDeadline: time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, s.AcceptingApplications(time.Date(2024, time.June, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, s.AcceptingApplications(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)))

	s.Status = ScholarshipStatusInactive
	assert.False(t, s.AcceptingApplications(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)))

	var missing *Scholarship
	assert.False(t, missing.AcceptingApplications(time.Now()))
}

func TestSlotUsageNormalize(t *testing.T) {
	unlimited := SlotUsage{Slots: 0, Approved: 7}
	unlimited.Normalize()
	assert.True(t, unlimited.Unlimited)
	assert.Equal(t, -1, unlimited.Available)

	full := SlotUsage{Slots: 3, Approved: 4}
	full.Normalize()
	assert.Equal(t, 0, full.Available)
}

func TestApplicationStatusClasses(t *testing.T) {
	assert.True(t, ApplicationStatusRejected.Terminal())
	assert.True(t, ApplicationStatusEnd.Terminal())
	assert.False(t, ApplicationStatusApproved.Terminal())
	assert.True(t, ApplicationStatusApproved.Active())
	assert.False(t, ApplicationStatusEnd.Active())
}

func TestParseSemester(t *testing.T) {
	for input, want := range map[string]Semester{"1st": SemesterFirst, "second": SemesterSecond, " midyear ": SemesterSummer} {
		got, err := ParseSemester(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSemester("winter")
	assert.Error(t, err)
}
