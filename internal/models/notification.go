package models

import "time"

// NotificationType enumerates events emitted to the delivery service.
type NotificationType string

const (
	NotificationSubmission              NotificationType = "submission"
	NotificationStatusChange            NotificationType = "status_change"
	NotificationDocumentRejected        NotificationType = "document_rejected"
	NotificationInterviewScheduled      NotificationType = "interview_scheduled"
	NotificationRescheduleRequested     NotificationType = "reschedule_requested"
	NotificationRenewalDeadlineApproach NotificationType = "renewal_deadline_approaching"
	NotificationStipendRecorded         NotificationType = "stipend_recorded"
)

// NotificationEvent is handed to the delivery collaborator; delivery is external.
type NotificationEvent struct {
	ID            string                 `json:"id"`
	Type          NotificationType       `json:"type"`
	ApplicationID string                 `json:"application_id"`
	RecipientID   string                 `json:"recipient_id,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}
