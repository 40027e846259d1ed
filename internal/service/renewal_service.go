package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/repository"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type renewalStore interface {
	Create(ctx context.Context, renewal *models.RenewalApplication) error
	GetByID(ctx context.Context, id string) (*models.RenewalApplication, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.RenewalApplication, error)
	ExistsBlocking(ctx context.Context, applicationID string, term models.TermKey) (bool, error)
	SaveTransition(ctx context.Context, renewal *models.RenewalApplication, expectedVersion int) error
}

type applicationLister interface {
	GetByID(ctx context.Context, id string) (*models.ScholarshipApplication, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ScholarshipApplication, int, error)
}

type renewalAction string

const (
	renewalBeginReview renewalAction = "begin_review"
	renewalApprove     renewalAction = "approve"
	renewalReject      renewalAction = "reject"
	renewalUpload      renewalAction = "upload_document"
)

// renewalTransitions is the reduced renewal lifecycle.
var renewalTransitions = map[models.RenewalStatus]map[renewalAction]models.RenewalStatus{
	models.RenewalStatusSubmitted: {
		renewalBeginReview: models.RenewalStatusUnderReview,
		renewalApprove:     models.RenewalStatusApproved,
		renewalReject:      models.RenewalStatusRejected,
		renewalUpload:      models.RenewalStatusSubmitted,
	},
	models.RenewalStatusUnderReview: {
		renewalApprove: models.RenewalStatusApproved,
		renewalReject:  models.RenewalStatusRejected,
		renewalUpload:  models.RenewalStatusUnderReview,
	},
}

// ReminderConfig controls renewal deadline reminders.
type ReminderConfig struct {
	Lead time.Duration
}

// RenewalService manages renewals of approved awards. Renewals never touch
// the original application or scholarship slots.
type RenewalService struct {
	renewals     renewalStore
	apps         applicationLister
	scholarships scholarshipReader
	calendar     *RenewalCalendar
	evaluator    RenewalEligibilityEvaluator
	notifier     NotificationEmitter
	audit        auditLogger
	validator    *validator.Validate
	reminders    ReminderConfig
	clock        Clock
	logger       *zap.Logger
}

// RenewalServiceOption configures the service.
type RenewalServiceOption func(*RenewalService)

// WithRenewalNotifier sets the notification emitter.
func WithRenewalNotifier(notifier NotificationEmitter) RenewalServiceOption {
	return func(s *RenewalService) { s.notifier = notifier }
}

// WithRenewalAudit sets the audit sink.
func WithRenewalAudit(audit auditLogger) RenewalServiceOption {
	return func(s *RenewalService) { s.audit = audit }
}

// WithRenewalClock overrides the time source.
func WithRenewalClock(clock Clock) RenewalServiceOption {
	return func(s *RenewalService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithReminderConfig overrides reminder settings.
func WithReminderConfig(cfg ReminderConfig) RenewalServiceOption {
	return func(s *RenewalService) {
		if cfg.Lead > 0 {
			s.reminders = cfg
		}
	}
}

// NewRenewalService constructs the service.
func NewRenewalService(renewals renewalStore, apps applicationLister, scholarships scholarshipReader, calendar *RenewalCalendar, logger *zap.Logger, opts ...RenewalServiceOption) *RenewalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RenewalService{
		renewals:     renewals,
		apps:         apps,
		scholarships: scholarships,
		calendar:     calendar,
		validator:    validator.New(),
		reminders:    ReminderConfig{Lead: 7 * 24 * time.Hour},
		clock:        systemClock,
		logger:       logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CheckRenewalEligibility reports whether the award may be renewed for the target term.
func (s *RenewalService) CheckRenewalEligibility(ctx context.Context, actor models.Actor, applicationID string, target dto.RenewalTarget) (*models.RenewalEligibility, error) {
	app, err := s.loadVisible(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	result, _, err := s.evaluate(ctx, app, target)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetUpcomingRenewalDeadlines lists the renewal windows still usable by the award.
func (s *RenewalService) GetUpcomingRenewalDeadlines(ctx context.Context, actor models.Actor, applicationID string) ([]models.RenewalDeadline, error) {
	app, err := s.loadVisible(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	return s.calendar.Upcoming(ctx, app, s.clock())
}

// CreateRenewalApplication opens a renewal when every precondition holds.
func (s *RenewalService) CreateRenewalApplication(ctx context.Context, actor models.Actor, applicationID string, req dto.CreateRenewalRequest) (*models.RenewalApplication, error) {
	app, err := s.loadVisible(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the awardee can request a renewal")
	}
	result, term, err := s.evaluate(ctx, app, req.RenewalTarget)
	if err != nil {
		return nil, err
	}
	if !result.Eligible {
		return nil, ineligibleRenewal(result.Reasons)
	}

	renewal := &models.RenewalApplication{
		OriginalApplicationID: app.ID,
		StudentID:             app.StudentID,
		ScholarshipID:         app.ScholarshipID,
		Semester:              term.Semester,
		Year:                  term.Year,
		CurrentGWA:            req.CurrentGWA,
		Status:                models.RenewalStatusSubmitted,
		Documents:             models.DocumentSet{},
		SubmittedAt:           s.clock(),
	}
	if err := s.renewals.Create(ctx, renewal); err != nil {
		if errors.Is(err, repository.ErrDuplicateActive) {
			return nil, ineligibleRenewal([]string{fmt.Sprintf("%s: a renewal for %s already exists", RenewalReasonDuplicate, term)})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create renewal application")
	}
	s.logger.Info("renewal application created", zap.String("renewal_id", renewal.ID), zap.String("application_id", app.ID), zap.String("term", term.String()))
	s.emit(ctx, models.NotificationSubmission, app.ID, app.StudentID, map[string]interface{}{
		"renewal_id": renewal.ID,
		"term":       term.String(),
	})
	s.auditRenewal(ctx, actor, renewal, "", renewal.Status)
	return renewal, nil
}

// ListRenewals returns renewals of an award.
func (s *RenewalService) ListRenewals(ctx context.Context, actor models.Actor, applicationID string) ([]models.RenewalApplication, error) {
	if _, err := s.loadVisible(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	renewals, err := s.renewals.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list renewals")
	}
	if renewals == nil {
		renewals = []models.RenewalApplication{}
	}
	return renewals, nil
}

// GetRenewal returns one renewal visible to the actor.
func (s *RenewalService) GetRenewal(ctx context.Context, actor models.Actor, id string) (*models.RenewalApplication, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	renewal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && renewal.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "renewal not found")
	}
	return renewal, nil
}

// BeginRenewalReview moves a submitted renewal under review.
func (s *RenewalService) BeginRenewalReview(ctx context.Context, actor models.Actor, id string) (*models.RenewalApplication, error) {
	return s.decide(ctx, actor, id, renewalBeginReview, "")
}

// ApproveRenewal approves a renewal. No scholarship slot is consumed.
func (s *RenewalService) ApproveRenewal(ctx context.Context, actor models.Actor, id string, req dto.RenewalDecisionRequest) (*models.RenewalApplication, error) {
	return s.decide(ctx, actor, id, renewalApprove, req.Remarks)
}

// RejectRenewal rejects a renewal. Remarks are mandatory.
func (s *RenewalService) RejectRenewal(ctx context.Context, actor models.Actor, id string, req dto.RenewalDecisionRequest) (*models.RenewalApplication, error) {
	if optionalString(req.Remarks) == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "remarks are required when rejecting a renewal")
	}
	return s.decide(ctx, actor, id, renewalReject, req.Remarks)
}

// UploadRenewalDocument adds a document to the renewal's own checklist.
func (s *RenewalService) UploadRenewalDocument(ctx context.Context, actor models.Actor, id string, req dto.UploadDocumentRequest) (*models.RenewalApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	renewal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent || renewal.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the awardee can upload renewal documents")
	}
	if _, err := nextRenewalStatus(renewal.Status, renewalUpload); err != nil {
		return nil, err
	}
	expected := renewal.Version
	renewal.Documents = ReplaceDocument(renewal.Documents, req.Type, req.File, s.clock())
	if err := s.renewals.SaveTransition(ctx, renewal, expected); err != nil {
		return nil, s.saveError(err)
	}
	return renewal, nil
}

// NotifyUpcomingRenewalDeadlines emits a reminder to every awardee whose next
// open renewal window closes within the reminder lead time and who has not
// renewed for that term yet. It returns the number of reminders sent.
func (s *RenewalService) NotifyUpcomingRenewalDeadlines(ctx context.Context) (int, error) {
	now := s.clock()
	sent := 0
	for page := 1; ; page++ {
		apps, total, err := s.apps.List(ctx, models.ApplicationFilter{
			Status:   []models.ApplicationStatus{models.ApplicationStatusApproved},
			Page:     page,
			PageSize: 200,
		})
		if err != nil {
			return sent, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list awardees")
		}
		for i := range apps {
			notified, err := s.remind(ctx, &apps[i], now)
			if err != nil {
				s.logger.Warn("renewal reminder skipped", zap.String("application_id", apps[i].ID), zap.Error(err))
				continue
			}
			if notified {
				sent++
			}
		}
		if len(apps) == 0 || page*200 >= total {
			break
		}
	}
	if sent > 0 {
		s.logger.Info("renewal reminders emitted", zap.Int("count", sent))
	}
	return sent, nil
}

func (s *RenewalService) remind(ctx context.Context, app *models.ScholarshipApplication, now time.Time) (bool, error) {
	deadlines, err := s.calendar.Upcoming(ctx, app, now)
	if err != nil {
		return false, err
	}
	for _, d := range deadlines {
		if !d.Open {
			continue
		}
		if d.Deadline.Sub(now) > s.reminders.Lead {
			return false, nil
		}
		exists, err := s.renewals.ExistsBlocking(ctx, app.ID, d.Term)
		if err != nil {
			return false, err
		}
		if exists {
			continue
		}
		s.emit(ctx, models.NotificationRenewalDeadlineApproach, app.ID, app.StudentID, map[string]interface{}{
			"term":     d.Term.String(),
			"deadline": d.Deadline,
		})
		return true, nil
	}
	return false, nil
}

func (s *RenewalService) evaluate(ctx context.Context, app *models.ScholarshipApplication, target dto.RenewalTarget) (*models.RenewalEligibility, models.TermKey, error) {
	if err := s.validator.Struct(target); err != nil {
		return nil, models.TermKey{}, validationError(err)
	}
	semester, err := models.ParseSemester(target.Semester)
	if err != nil {
		return nil, models.TermKey{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	term := models.TermKey{Semester: semester, Year: target.Year}
	now := s.clock()

	scholarship, err := s.scholarships.GetByID(ctx, app.ScholarshipID)
	if err != nil {
		if isNoRows(err) || errors.Is(err, appErrors.ErrNotFound) {
			return nil, term, appErrors.Clone(appErrors.ErrNotFound, "scholarship not found")
		}
		return nil, term, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scholarship")
	}
	duplicate, err := s.renewals.ExistsBlocking(ctx, app.ID, term)
	if err != nil {
		return nil, term, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing renewals")
	}
	window, err := s.calendar.WindowFor(ctx, app, term, now)
	if err != nil {
		return nil, term, err
	}
	result := s.evaluator.Evaluate(RenewalCheck{
		Application:     app,
		Scholarship:     scholarship,
		Target:          term,
		CurrentGWA:      target.CurrentGWA,
		DuplicateExists: duplicate,
		Window:          window,
	})
	return &result, term, nil
}

func (s *RenewalService) decide(ctx context.Context, actor models.Actor, id string, action renewalAction, remarks string) (*models.RenewalApplication, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if !containsRole(staffApprovers, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not %s renewals", actor.Role, strings.ReplaceAll(string(action), "_", " ")))
	}
	renewal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	to, err := nextRenewalStatus(renewal.Status, action)
	if err != nil {
		return nil, err
	}
	if action == renewalApprove {
		if err := s.requireActiveAward(ctx, renewal); err != nil {
			return nil, err
		}
	}
	from := renewal.Status
	expected := renewal.Version
	renewal.Status = to
	if action != renewalBeginReview {
		reviewer := actor.ID
		now := s.clock()
		renewal.ReviewedBy = &reviewer
		renewal.ReviewedAt = &now
	}
	if note := optionalString(remarks); note != nil {
		renewal.Remarks = note
	}
	if err := s.renewals.SaveTransition(ctx, renewal, expected); err != nil {
		return nil, s.saveError(err)
	}
	s.emit(ctx, models.NotificationStatusChange, renewal.OriginalApplicationID, renewal.StudentID, map[string]interface{}{
		"renewal_id": renewal.ID,
		"from":       from,
		"to":         to,
	})
	s.auditRenewal(ctx, actor, renewal, from, to)
	return renewal, nil
}

// requireActiveAward refuses to extend an award that was revoked or ended
// while the renewal was pending.
func (s *RenewalService) requireActiveAward(ctx context.Context, renewal *models.RenewalApplication) error {
	app, err := s.apps.GetByID(ctx, renewal.OriginalApplicationID)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.Status != models.ApplicationStatusApproved {
		return appErrors.WithDetails(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot approve renewal of an application in status %s", app.Status),
			map[string]string{"action": string(renewalApprove), "status": string(app.Status)})
	}
	return nil
}

func nextRenewalStatus(from models.RenewalStatus, action renewalAction) (models.RenewalStatus, error) {
	to, ok := renewalTransitions[from][action]
	if !ok {
		return from, appErrors.WithDetails(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot %s renewal in status %s", strings.ReplaceAll(string(action), "_", " "), from),
			map[string]string{"action": string(action), "status": string(from)})
	}
	return to, nil
}

func (s *RenewalService) saveError(err error) error {
	if errors.Is(err, repository.ErrStaleVersion) {
		return appErrors.Clone(appErrors.ErrConflict, "renewal was modified by another request; reload and try again")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save renewal")
}

func (s *RenewalService) load(ctx context.Context, id string) (*models.RenewalApplication, error) {
	renewal, err := s.renewals.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "renewal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load renewal")
	}
	return renewal, nil
}

func (s *RenewalService) loadVisible(ctx context.Context, actor models.Actor, applicationID string) (*models.ScholarshipApplication, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if actor.Role == models.RoleStudent && app.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return app, nil
}

func (s *RenewalService) emit(ctx context.Context, kind models.NotificationType, applicationID, recipient string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Emit(ctx, models.NotificationEvent{
		Type:          kind,
		ApplicationID: applicationID,
		RecipientID:   recipient,
		Payload:       payload,
		OccurredAt:    s.clock(),
	})
}

func (s *RenewalService) auditRenewal(ctx context.Context, actor models.Actor, renewal *models.RenewalApplication, from, to models.RenewalStatus) {
	actorID := actor.ID
	resourceID := renewal.ID
	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRenewalTransition,
		Resource:   "renewal_application",
		ResourceID: &resourceID,
		OldValues:  auditValues(map[string]interface{}{"status": from}),
		NewValues: auditValues(map[string]interface{}{
			"status":                  to,
			"original_application_id": renewal.OriginalApplicationID,
			"term":                    renewal.Term().String(),
		}),
	})
}

func ineligibleRenewal(reasons []string) error {
	return appErrors.WithDetails(appErrors.ErrIneligibleRenewal, "renewal is not allowed", map[string][]string{"reasons": reasons})
}
