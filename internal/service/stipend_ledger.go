package service

import (
	"context"
	"math"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type stipendHistoryReader interface {
	ListByApplication(ctx context.Context, applicationID string) ([]models.StipendDisbursement, error)
}

// StipendLedger records disbursements against approved awards. The running
// total on the application only ever grows.
type StipendLedger struct {
	history stipendHistoryReader
}

// NewStipendLedger constructs the ledger.
func NewStipendLedger(history stipendHistoryReader) *StipendLedger {
	return &StipendLedger{history: history}
}

// Record applies a disbursement to the candidate application and returns the
// ledger entry to persist with it.
func (l *StipendLedger) Record(app *models.ScholarshipApplication, amount float64, recordedBy string, note *string, now time.Time) (*models.StipendDisbursement, error) {
	if app.Status != models.ApplicationStatusApproved {
		return nil, invalidTransition(ActionRecordStipend, app.Status)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stipend amount must be greater than zero")
	}
	app.AmountReceived += amount
	disbursed := now
	app.LastStipendDate = &disbursed
	return &models.StipendDisbursement{
		ApplicationID: app.ID,
		Amount:        amount,
		RecordedBy:    recordedBy,
		Note:          note,
		DisbursedAt:   now,
	}, nil
}

// History lists the disbursements of an application.
func (l *StipendLedger) History(ctx context.Context, applicationID string) ([]models.StipendDisbursement, error) {
	if l.history == nil {
		return []models.StipendDisbursement{}, nil
	}
	entries, err := l.history.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stipend disbursements")
	}
	if entries == nil {
		entries = []models.StipendDisbursement{}
	}
	return entries, nil
}
