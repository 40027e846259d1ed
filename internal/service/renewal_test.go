package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/repository"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

var (
	firstTerm2024 = models.AcademicTerm{
		ID:        "term-1",
		Semester:  models.SemesterFirst,
		Year:      2024,
		StartDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.October, 20, 0, 0, 0, 0, time.UTC),
	}
	secondTerm2024 = models.AcademicTerm{
		ID:        "term-2",
		Semester:  models.SemesterSecond,
		Year:      2024,
		StartDate: time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.March, 21, 0, 0, 0, 0, time.UTC),
	}
	secondTerm2023 = models.AcademicTerm{
		ID:        "term-0",
		Semester:  models.SemesterSecond,
		Year:      2023,
		StartDate: time.Date(2023, time.November, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.March, 22, 0, 0, 0, 0, time.UTC),
	}
)

type termStub struct{ terms []models.AcademicTerm }

func (s termStub) ListStartingAfter(ctx context.Context, from time.Time, limit int) ([]models.AcademicTerm, error) {
	var out []models.AcademicTerm
	for _, term := range s.terms {
		if term.StartDate.After(from) && len(out) < limit {
			out = append(out, term)
		}
	}
	return out, nil
}

func (s termStub) FindByKey(ctx context.Context, key models.TermKey) (*models.AcademicTerm, error) {
	for _, term := range s.terms {
		if term.Key() == key {
			t := term
			return &t, nil
		}
	}
	return nil, sql.ErrNoRows
}

type renewalStoreStub struct {
	mu       sync.Mutex
	renewals map[string]*models.RenewalApplication
	createFn func(*models.RenewalApplication) error
}

func newRenewalStoreStub(existing ...*models.RenewalApplication) *renewalStoreStub {
	s := &renewalStoreStub{renewals: map[string]*models.RenewalApplication{}}
	for _, r := range existing {
		s.renewals[r.ID] = r
	}
	return s
}

func (s *renewalStoreStub) Create(ctx context.Context, renewal *models.RenewalApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createFn != nil {
		if err := s.createFn(renewal); err != nil {
			return err
		}
	}
	renewal.ID = "renewal-new"
	renewal.Version = 1
	c := *renewal
	s.renewals[renewal.ID] = &c
	return nil
}

func (s *renewalStoreStub) GetByID(ctx context.Context, id string) (*models.RenewalApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.renewals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *r
	return &c, nil
}

func (s *renewalStoreStub) ListByApplication(ctx context.Context, applicationID string) ([]models.RenewalApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RenewalApplication
	for _, r := range s.renewals {
		if r.OriginalApplicationID == applicationID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *renewalStoreStub) ExistsBlocking(ctx context.Context, applicationID string, term models.TermKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.renewals {
		if r.OriginalApplicationID == applicationID && r.Term() == term && r.Status.Blocking() {
			return true, nil
		}
	}
	return false, nil
}

func (s *renewalStoreStub) SaveTransition(ctx context.Context, renewal *models.RenewalApplication, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.renewals[renewal.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	renewal.Version = expectedVersion + 1
	c := *renewal
	s.renewals[renewal.ID] = &c
	return nil
}

type renewalHarness struct {
	apps     *workflowStore
	renewals *renewalStoreStub
	notifier *recordingNotifier
	svc      *RenewalService
}

func newRenewalHarness(now time.Time, sch *models.Scholarship, renewals ...*models.RenewalApplication) *renewalHarness {
	apps := newWorkflowStore(sch)
	approvedAt := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	app := appInStatus(sch, "app-1", models.ApplicationStatusApproved)
	app.ApprovedAt = &approvedAt
	apps.put(app)

	h := &renewalHarness{apps: apps, renewals: newRenewalStoreStub(renewals...), notifier: &recordingNotifier{}}
	calendar := NewRenewalCalendar(termStub{terms: []models.AcademicTerm{secondTerm2023, firstTerm2024, secondTerm2024}},
		RenewalWindowConfig{OpenDays: 45, GraceDays: 14})
	h.svc = NewRenewalService(h.renewals, apps, scholarshipLookup{store: apps}, calendar, nil,
		WithRenewalNotifier(h.notifier),
		WithRenewalClock(func() time.Time { return now }),
	)
	return h
}

func renewalTarget(gwa float64) dto.RenewalTarget {
	return dto.RenewalTarget{Semester: "first", Year: 2024, CurrentGWA: gwa}
}

func TestRenewalEvaluatorNotApprovedAlwaysCited(t *testing.T) {
	open := &models.RenewalDeadline{Open: true}
	sch := academicScholarship("sch-1", 0, 0)
	for _, status := range allStatuses {
		if status == models.ApplicationStatusApproved {
			continue
		}
		result := RenewalEligibilityEvaluator{}.Evaluate(RenewalCheck{
			Application: &models.ScholarshipApplication{Status: status},
			Scholarship: sch,
			CurrentGWA:  1.2,
			Window:      open,
		})
		assert.False(t, result.Eligible)
		require.NotEmpty(t, result.Reasons)
		assert.True(t, strings.HasPrefix(result.Reasons[0], RenewalReasonNotApproved), status)
	}
}

func TestRenewalEvaluatorEligibleOnlyWhenAllHold(t *testing.T) {
	sch := academicScholarship("sch-1", 0, 0)
	sch.Criteria.MinRenewalGWA = floatPtr(1.25)
	approved := &models.ScholarshipApplication{Status: models.ApplicationStatusApproved}
	base := RenewalCheck{Application: approved, Scholarship: sch, CurrentGWA: 1.5, Window: &models.RenewalDeadline{Open: true}}

	assert.True(t, RenewalEligibilityEvaluator{}.Evaluate(base).Eligible)

	cases := map[string]func(*RenewalCheck){
		RenewalReasonDuplicate:       func(c *RenewalCheck) { c.DuplicateExists = true },
		RenewalReasonOutsideWindow:   func(c *RenewalCheck) { c.Window = &models.RenewalDeadline{Open: false} },
		RenewalReasonGWABelowMinimum: func(c *RenewalCheck) { c.CurrentGWA = 1.1 },
	}
	for reason, mutate := range cases {
		check := base
		mutate(&check)
		result := RenewalEligibilityEvaluator{}.Evaluate(check)
		assert.False(t, result.Eligible)
		require.Len(t, result.Reasons, 1, reason)
		assert.True(t, strings.HasPrefix(result.Reasons[0], reason))
	}
}

func TestRenewalMinimumFallsBackToInitialMinimum(t *testing.T) {
	sch := academicScholarship("sch-1", 0, 0)
	require.NotNil(t, minimumRenewalGWA(sch))
	assert.Equal(t, 1.0, *minimumRenewalGWA(sch))
	sch.Criteria.MinGWA = nil
	assert.Nil(t, minimumRenewalGWA(sch))
}

func TestRenewalCalendarWindow(t *testing.T) {
	cal := NewRenewalCalendar(termStub{}, RenewalWindowConfig{OpenDays: 45, GraceDays: 14})
	window := cal.Window(firstTerm2024, fixedNow)

	assert.Equal(t, time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC), window.OpensAt)
	assert.Equal(t, 24, window.Deadline.Day())
	assert.Equal(t, time.June, window.Deadline.Month())
	assert.True(t, window.Open)
	assert.False(t, cal.Window(secondTerm2024, fixedNow).Open)
}

func TestUpcomingDeadlinesSkipPastAndPreAwardTerms(t *testing.T) {
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1))

	deadlines, err := h.svc.GetUpcomingRenewalDeadlines(context.Background(), studentActor, "app-1")
	require.NoError(t, err)
	require.Len(t, deadlines, 2)
	assert.Equal(t, firstTerm2024.Key(), deadlines[0].Term)
	assert.Equal(t, secondTerm2024.Key(), deadlines[1].Term)
}

func TestCreateRenewalApplication(t *testing.T) {
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1))

	renewal, err := h.svc.CreateRenewalApplication(context.Background(), studentActor, "app-1", dto.CreateRenewalRequest{RenewalTarget: renewalTarget(1.4)})
	require.NoError(t, err)
	assert.Equal(t, models.RenewalStatusSubmitted, renewal.Status)
	assert.Equal(t, "app-1", renewal.OriginalApplicationID)
	assert.Equal(t, models.SemesterFirst, renewal.Semester)

	original, err := h.apps.GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, original.Status)
	assert.Equal(t, 1, h.apps.approvedCount("sch-1"))
}

func TestCreateRenewalDuplicateTerm(t *testing.T) {
	existing := &models.RenewalApplication{
		ID: "renewal-1", OriginalApplicationID: "app-1", StudentID: studentActor.ID,
		Semester: models.SemesterFirst, Year: 2024, Status: models.RenewalStatusApproved, Version: 2,
	}
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1), existing)

	_, err := h.svc.CreateRenewalApplication(context.Background(), studentActor, "app-1", dto.CreateRenewalRequest{RenewalTarget: renewalTarget(1.4)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrIneligibleRenewal))
	details := appErrors.FromError(err).Details.(map[string][]string)
	require.Len(t, details["reasons"], 1)
	assert.True(t, strings.HasPrefix(details["reasons"][0], RenewalReasonDuplicate))
}

func TestCreateRenewalRaceSurfacesAsDuplicate(t *testing.T) {
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1))
	h.renewals.createFn = func(*models.RenewalApplication) error { return repository.ErrDuplicateActive }

	_, err := h.svc.CreateRenewalApplication(context.Background(), studentActor, "app-1", dto.CreateRenewalRequest{RenewalTarget: renewalTarget(1.4)})
	assert.True(t, errors.Is(err, appErrors.ErrIneligibleRenewal))
}

func TestCheckRenewalEligibilityOutsideWindowAndLowGWA(t *testing.T) {
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1))

	result, err := h.svc.CheckRenewalEligibility(context.Background(), studentActor, "app-1",
		dto.RenewalTarget{Semester: "second", Year: 2024, CurrentGWA: 0.5})
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	require.Len(t, result.Reasons, 2)
	assert.True(t, strings.HasPrefix(result.Reasons[0], RenewalReasonOutsideWindow))
	assert.True(t, strings.HasPrefix(result.Reasons[1], RenewalReasonGWABelowMinimum))
}

func TestCheckRenewalEligibilityRejectsUnknownSemester(t *testing.T) {
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1))
	_, err := h.svc.CheckRenewalEligibility(context.Background(), studentActor, "app-1",
		dto.RenewalTarget{Semester: "winter", Year: 2024, CurrentGWA: 1.4})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRenewalDecisions(t *testing.T) {
	pending := &models.RenewalApplication{
		ID: "renewal-1", OriginalApplicationID: "app-1", StudentID: studentActor.ID,
		Semester: models.SemesterFirst, Year: 2024, Status: models.RenewalStatusSubmitted, Version: 1,
	}
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1), pending)
	ctx := context.Background()

	_, err := h.svc.BeginRenewalReview(ctx, evaluatorActor, "renewal-1")
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	renewal, err := h.svc.BeginRenewalReview(ctx, approverActor, "renewal-1")
	require.NoError(t, err)
	assert.Equal(t, models.RenewalStatusUnderReview, renewal.Status)

	_, err = h.svc.RejectRenewal(ctx, approverActor, "renewal-1", dto.RenewalDecisionRequest{})
	require.True(t, errors.Is(err, appErrors.ErrValidation))

	renewal, err = h.svc.ApproveRenewal(ctx, approverActor, "renewal-1", dto.RenewalDecisionRequest{Remarks: "keep it up"})
	require.NoError(t, err)
	assert.Equal(t, models.RenewalStatusApproved, renewal.Status)
	require.NotNil(t, renewal.ReviewedBy)
	assert.Equal(t, approverActor.ID, *renewal.ReviewedBy)

	_, err = h.svc.ApproveRenewal(ctx, approverActor, "renewal-1", dto.RenewalDecisionRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidStateTransition))

	_, err = h.svc.UploadRenewalDocument(ctx, studentActor, "renewal-1", dto.UploadDocumentRequest{Type: "grades", File: uploaded("grades")})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidStateTransition))
}

func TestApproveRenewalRequiresApprovedOriginal(t *testing.T) {
	pending := &models.RenewalApplication{
		ID: "renewal-1", OriginalApplicationID: "app-1", StudentID: studentActor.ID,
		Semester: models.SemesterFirst, Year: 2024, Status: models.RenewalStatusUnderReview, Version: 1,
	}
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1), pending)
	revoked := appInStatus(academicScholarship("sch-1", 0, 1), "app-1", models.ApplicationStatusRejected)
	h.apps.put(revoked)

	_, err := h.svc.ApproveRenewal(context.Background(), approverActor, "renewal-1", dto.RenewalDecisionRequest{})
	require.True(t, errors.Is(err, appErrors.ErrInvalidStateTransition))

	stored, err := h.renewals.GetByID(context.Background(), "renewal-1")
	require.NoError(t, err)
	assert.Equal(t, models.RenewalStatusUnderReview, stored.Status)
	assert.Empty(t, h.notifier.ofType(models.NotificationStatusChange))

	// rejecting a renewal of a closed award stays possible
	renewal, err := h.svc.RejectRenewal(context.Background(), approverActor, "renewal-1", dto.RenewalDecisionRequest{Remarks: "award revoked"})
	require.NoError(t, err)
	assert.Equal(t, models.RenewalStatusRejected, renewal.Status)
}

func TestGetRenewalRequiresActor(t *testing.T) {
	pending := &models.RenewalApplication{
		ID: "renewal-1", OriginalApplicationID: "app-1", StudentID: studentActor.ID,
		Semester: models.SemesterFirst, Year: 2024, Status: models.RenewalStatusSubmitted, Version: 1,
	}
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1), pending)

	_, err := h.svc.GetRenewal(context.Background(), models.Actor{Role: models.RoleAdmin}, "renewal-1")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	renewal, err := h.svc.GetRenewal(context.Background(), approverActor, "renewal-1")
	require.NoError(t, err)
	assert.Equal(t, "renewal-1", renewal.ID)
}

func TestUploadRenewalDocument(t *testing.T) {
	pending := &models.RenewalApplication{
		ID: "renewal-1", OriginalApplicationID: "app-1", StudentID: studentActor.ID,
		Semester: models.SemesterFirst, Year: 2024, Status: models.RenewalStatusSubmitted, Version: 1,
	}
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1), pending)

	_, err := h.svc.UploadRenewalDocument(context.Background(), otherStudent, "renewal-1", dto.UploadDocumentRequest{Type: "grades", File: uploaded("grades")})
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	renewal, err := h.svc.UploadRenewalDocument(context.Background(), studentActor, "renewal-1", dto.UploadDocumentRequest{Type: "grades", File: uploaded("grades")})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentPending, renewal.Documents["grades"].VerificationStatus)
	assert.Equal(t, 2, renewal.Version)
}

func TestNotifyUpcomingRenewalDeadlines(t *testing.T) {
	reminderDay := time.Date(2024, time.June, 20, 8, 0, 0, 0, time.UTC)
	h := newRenewalHarness(reminderDay, academicScholarship("sch-1", 0, 1))

	sent, err := h.svc.NotifyUpcomingRenewalDeadlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	events := h.notifier.ofType(models.NotificationRenewalDeadlineApproach)
	require.Len(t, events, 1)
	assert.Equal(t, studentActor.ID, events[0].RecipientID)

	h.renewals.renewals["renewal-1"] = &models.RenewalApplication{
		ID: "renewal-1", OriginalApplicationID: "app-1", Semester: models.SemesterFirst, Year: 2024,
		Status: models.RenewalStatusSubmitted, Version: 1,
	}
	sent, err = h.svc.NotifyUpcomingRenewalDeadlines(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestNotifySkipsDeadlinesBeyondLead(t *testing.T) {
	h := newRenewalHarness(fixedNow, academicScholarship("sch-1", 0, 1))
	sent, err := h.svc.NotifyUpcomingRenewalDeadlines(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}
