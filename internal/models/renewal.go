package models

import "time"

// RenewalStatus is the reduced lifecycle of a renewal request.
type RenewalStatus string

const (
	RenewalStatusSubmitted   RenewalStatus = "submitted"
	RenewalStatusUnderReview RenewalStatus = "under_review"
	RenewalStatusApproved    RenewalStatus = "approved"
	RenewalStatusRejected    RenewalStatus = "rejected"
)

// Blocking reports whether a renewal in this status prevents a duplicate request.
func (s RenewalStatus) Blocking() bool {
	return s == RenewalStatusSubmitted || s == RenewalStatusUnderReview || s == RenewalStatusApproved
}

// RenewalApplication continues an approved award for a later term. It
// references the original application and never mutates it.
type RenewalApplication struct {
	ID                    string        `db:"id" json:"id"`
	OriginalApplicationID string        `db:"original_application_id" json:"original_application_id"`
	StudentID             string        `db:"student_id" json:"student_id"`
	ScholarshipID         string        `db:"scholarship_id" json:"scholarship_id"`
	Semester              Semester      `db:"semester" json:"semester"`
	Year                  int           `db:"year" json:"year"`
	CurrentGWA            float64       `db:"current_gwa" json:"current_gwa"`
	Status                RenewalStatus `db:"status" json:"status"`
	Documents             DocumentSet   `db:"-" json:"documents"`
	DocumentsRaw          []byte        `db:"documents" json:"-"`
	Remarks               *string       `db:"remarks" json:"remarks,omitempty"`
	ReviewedBy            *string       `db:"reviewed_by" json:"reviewed_by,omitempty"`
	SubmittedAt           time.Time     `db:"submitted_at" json:"submitted_at"`
	ReviewedAt            *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Version               int           `db:"version" json:"version"`
}

// Term returns the renewal's target term.
func (r *RenewalApplication) Term() TermKey {
	return TermKey{Semester: r.Semester, Year: r.Year}
}

// RenewalEligibility is the outcome of a renewal eligibility check.
type RenewalEligibility struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

// RenewalDeadline describes one upcoming renewal window.
type RenewalDeadline struct {
	Term     TermKey   `json:"term"`
	TermID   string    `json:"term_id"`
	OpensAt  time.Time `json:"opens_at"`
	Deadline time.Time `json:"deadline"`
	Open     bool      `json:"open"`
}
