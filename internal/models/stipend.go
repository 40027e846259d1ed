package models

import "time"

// StipendDisbursement is one ledger entry against an approved application.
type StipendDisbursement struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	Amount        float64   `db:"amount" json:"amount"`
	RecordedBy    string    `db:"recorded_by" json:"recorded_by"`
	Note          *string   `db:"note" json:"note,omitempty"`
	DisbursedAt   time.Time `db:"disbursed_at" json:"disbursed_at"`
}
