package service

import (
	"fmt"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// Renewal rejection reasons. Each reason text starts with one of these.
const (
	RenewalReasonNotApproved     = "not approved"
	RenewalReasonDuplicate       = "duplicate renewal"
	RenewalReasonOutsideWindow   = "outside renewal window"
	RenewalReasonGWABelowMinimum = "gwa below renewal minimum"
)

// RenewalCheck gathers the facts the evaluator decides on.
type RenewalCheck struct {
	Application *models.ScholarshipApplication
	Scholarship *models.Scholarship
	Target      models.TermKey
	CurrentGWA  float64
	// DuplicateExists is true when a submitted, under_review or approved
	// renewal already covers Target.
	DuplicateExists bool
	// Window is the target term's renewal window, nil when the term is not a
	// renewable term for this award.
	Window *models.RenewalDeadline
}

// RenewalEligibilityEvaluator decides whether an award may be renewed for a term.
// It is pure; RenewalService collects the facts.
type RenewalEligibilityEvaluator struct{}

// Evaluate reports every unmet precondition.
func (RenewalEligibilityEvaluator) Evaluate(check RenewalCheck) models.RenewalEligibility {
	var reasons []string
	if check.Application == nil || check.Application.Status != models.ApplicationStatusApproved {
		status := "missing"
		if check.Application != nil {
			status = string(check.Application.Status)
		}
		reasons = append(reasons, fmt.Sprintf("%s: application status is %s", RenewalReasonNotApproved, status))
	}
	if check.DuplicateExists {
		reasons = append(reasons, fmt.Sprintf("%s: a renewal for %s already exists", RenewalReasonDuplicate, check.Target))
	}
	switch {
	case check.Window == nil:
		reasons = append(reasons, fmt.Sprintf("%s: %s is not an upcoming term for this award", RenewalReasonOutsideWindow, check.Target))
	case !check.Window.Open:
		reasons = append(reasons, fmt.Sprintf("%s: renewals for %s are accepted from %s until %s", RenewalReasonOutsideWindow,
			check.Target, check.Window.OpensAt.Format("2006-01-02"), check.Window.Deadline.Format("2006-01-02")))
	}
	if threshold := minimumRenewalGWA(check.Scholarship); threshold != nil && check.CurrentGWA < *threshold {
		reasons = append(reasons, fmt.Sprintf("%s: %.2f is below the required %.2f", RenewalReasonGWABelowMinimum, check.CurrentGWA, *threshold))
	}
	if reasons == nil {
		reasons = []string{}
	}
	return models.RenewalEligibility{Eligible: len(reasons) == 0, Reasons: reasons}
}

// minimumRenewalGWA prefers the renewal threshold and falls back to the
// initial award minimum.
func minimumRenewalGWA(s *models.Scholarship) *float64 {
	if s == nil {
		return nil
	}
	if s.Criteria.MinRenewalGWA != nil {
		return s.Criteria.MinRenewalGWA
	}
	return s.Criteria.MinGWA
}
