package service

import (
	"context"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type termReader interface {
	ListStartingAfter(ctx context.Context, from time.Time, limit int) ([]models.AcademicTerm, error)
	FindByKey(ctx context.Context, key models.TermKey) (*models.AcademicTerm, error)
}

// RenewalWindowConfig sets how far around a term's start renewals are accepted.
type RenewalWindowConfig struct {
	OpenDays  int
	GraceDays int
}

// RenewalCalendar derives renewal windows from the academic calendar. A term's
// window opens OpenDays before its start and closes GraceDays after it.
type RenewalCalendar struct {
	terms termReader
	cfg   RenewalWindowConfig
}

// NewRenewalCalendar constructs the calendar.
func NewRenewalCalendar(terms termReader, cfg RenewalWindowConfig) *RenewalCalendar {
	if cfg.OpenDays <= 0 {
		cfg.OpenDays = 45
	}
	if cfg.GraceDays < 0 {
		cfg.GraceDays = 0
	}
	return &RenewalCalendar{terms: terms, cfg: cfg}
}

// Window computes the renewal window of one term.
func (c *RenewalCalendar) Window(term models.AcademicTerm, now time.Time) models.RenewalDeadline {
	opens := term.StartDate.AddDate(0, 0, -c.cfg.OpenDays)
	deadline := endOfDay(term.StartDate.AddDate(0, 0, c.cfg.GraceDays))
	return models.RenewalDeadline{
		Term:     term.Key(),
		TermID:   term.ID,
		OpensAt:  opens,
		Deadline: deadline,
		Open:     !now.Before(opens) && !now.After(deadline),
	}
}

// Upcoming lists the renewal windows an award can still use: terms that start
// after the award was granted and whose deadline has not passed.
func (c *RenewalCalendar) Upcoming(ctx context.Context, app *models.ScholarshipApplication, now time.Time) ([]models.RenewalDeadline, error) {
	from := awardStart(app, now)
	terms, err := c.terms.ListStartingAfter(ctx, from, 6)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read academic calendar")
	}
	deadlines := make([]models.RenewalDeadline, 0, len(terms))
	for _, term := range terms {
		window := c.Window(term, now)
		if window.Deadline.Before(now) {
			continue
		}
		deadlines = append(deadlines, window)
	}
	return deadlines, nil
}

// WindowFor returns the window for the target term, or nil when the term is
// unknown or does not follow the award.
func (c *RenewalCalendar) WindowFor(ctx context.Context, app *models.ScholarshipApplication, target models.TermKey, now time.Time) (*models.RenewalDeadline, error) {
	term, err := c.terms.FindByKey(ctx, target)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read academic calendar")
	}
	if !term.StartDate.After(awardStart(app, now)) {
		return nil, nil
	}
	window := c.Window(*term, now)
	return &window, nil
}

func awardStart(app *models.ScholarshipApplication, now time.Time) time.Time {
	if app != nil && app.ApprovedAt != nil {
		return *app.ApprovedAt
	}
	return now
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-1), t.Location())
}
