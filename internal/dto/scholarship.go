package dto

import (
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// UpsertScholarshipRequest creates or edits a scholarship program.
type UpsertScholarshipRequest struct {
	Name                string                     `json:"name" validate:"required,max=200"`
	Type                models.ScholarshipType     `json:"type" validate:"required"`
	Status              models.ScholarshipStatus   `json:"status" validate:"required,oneof=active inactive"`
	ApplicationDeadline time.Time                  `json:"application_deadline" validate:"required"`
	Slots               int                        `json:"slots" validate:"gte=0"`
	StipendAmount       float64                    `json:"stipend_amount" validate:"gte=0"`
	Criteria            models.EligibilityCriteria `json:"eligibility_criteria"`
	RequiredDocuments   []string                   `json:"required_documents" validate:"dive,required"`
}

// ScholarshipQuery filters scholarship listings.
type ScholarshipQuery struct {
	Type     string `form:"type"`
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
