package dto

// RenewalTarget identifies the term a renewal is requested for.
type RenewalTarget struct {
	Semester   string  `json:"semester" form:"semester" validate:"required"`
	Year       int     `json:"year" form:"year" validate:"required,gte=2000,lte=2100"`
	CurrentGWA float64 `json:"current_gwa" form:"gwa" validate:"gte=0"`
}

// CreateRenewalRequest asks to continue an approved award for a later term.
type CreateRenewalRequest struct {
	RenewalTarget
}

// RenewalDecisionRequest approves or rejects a renewal. Rejections require remarks.
type RenewalDecisionRequest struct {
	Remarks string `json:"remarks"`
}
