package models

import "time"

// InterviewStatus tracks the single interview bound to an application.
type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "scheduled"
	InterviewCompleted   InterviewStatus = "completed"
	InterviewRescheduled InterviewStatus = "rescheduled"
	InterviewCancelled   InterviewStatus = "cancelled"
)

// Interview is updated in place on reschedule; there is one row per application.
type Interview struct {
	ID            string          `db:"id" json:"id"`
	ApplicationID string          `db:"application_id" json:"application_id"`
	ScheduledAt   time.Time       `db:"scheduled_at" json:"scheduled_at"`
	Status        InterviewStatus `db:"status" json:"status"`
	Remarks       *string         `db:"remarks" json:"remarks,omitempty"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
	ScheduledBy   string          `db:"scheduled_by" json:"scheduled_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
