package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// CreateApplicationRequest opens a draft application.
type CreateApplicationRequest struct {
	ScholarshipID   string          `json:"scholarship_id" validate:"required"`
	ApplicationData json.RawMessage `json:"application_data" swaggertype:"object"`
}

// UploadDocumentRequest carries the metadata of a file already stored by the upload service.
type UploadDocumentRequest struct {
	Type string              `json:"type" validate:"required"`
	File models.UploadedFile `json:"file"`
}

// SubmitApplicationRequest submits a draft. Documents and data may be attached in the same call.
type SubmitApplicationRequest struct {
	Profile         models.StudentProfile          `json:"profile"`
	ApplicationData json.RawMessage                `json:"application_data,omitempty" swaggertype:"object"`
	Documents       map[string]models.UploadedFile `json:"documents,omitempty" validate:"omitempty,dive"`
}

// PreviewEligibilityRequest probes eligibility without creating anything.
type PreviewEligibilityRequest struct {
	ScholarshipID   string                `json:"scholarship_id" validate:"required"`
	Profile         models.StudentProfile `json:"profile"`
	ApplicationData json.RawMessage       `json:"application_data,omitempty" swaggertype:"object"`
}

// VerifyDocumentRequest records a verifier's decision on one document.
type VerifyDocumentRequest struct {
	Status  models.DocumentVerificationStatus `json:"status" validate:"required,oneof=verified rejected"`
	Comment string                            `json:"comment"`
}

// CommentRequest carries optional staff comments.
type CommentRequest struct {
	Comments string `json:"comments"`
}

// ReasonRequest carries a mandatory staff reason.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// EvaluateRequest moves a verified application to committee evaluation.
type EvaluateRequest struct {
	Recommendation string `json:"recommendation"`
}

// ApproveRequest approves an application under evaluation.
type ApproveRequest struct {
	Notes string `json:"notes"`
}

// EndAwardReason names why an award closes.
type EndAwardReason string

const (
	EndAwardTermConcluded EndAwardReason = "term_concluded"
	EndAwardSuperseded    EndAwardReason = "superseded"
)

// EndAwardRequest closes an approved award.
type EndAwardRequest struct {
	Reason  EndAwardReason `json:"reason" validate:"required,oneof=term_concluded superseded"`
	Remarks string         `json:"remarks"`
}

// RecordStipendRequest appends a disbursement.
type RecordStipendRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Note   string  `json:"note"`
}

// ScheduleInterviewRequest creates or moves the application's interview.
type ScheduleInterviewRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Remarks     string    `json:"remarks"`
}

// InterviewOutcomeRequest completes or cancels an interview.
type InterviewOutcomeRequest struct {
	Remarks string `json:"remarks"`
	Notes   string `json:"notes"`
}

// ApplicationQuery filters application listings.
type ApplicationQuery struct {
	ScholarshipID string `form:"scholarship_id"`
	StudentID     string `form:"student_id"`
	Status        string `form:"status"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}

// ApplicationView decorates an application with the actions legal in its status.
type ApplicationView struct {
	*models.ScholarshipApplication
	AllowedActions []string `json:"allowed_actions"`
}
