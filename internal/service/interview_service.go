package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type interviewStore interface {
	Upsert(ctx context.Context, interview *models.Interview) error
	GetByApplication(ctx context.Context, applicationID string) (*models.Interview, error)
}

type applicationReader interface {
	GetByID(ctx context.Context, id string) (*models.ScholarshipApplication, error)
}

// interviewTransitions lists the interview statuses each action may start from.
var interviewTransitions = map[string][]models.InterviewStatus{
	"request_reschedule": {models.InterviewScheduled},
	"complete":           {models.InterviewScheduled},
	"cancel":             {models.InterviewScheduled, models.InterviewRescheduled},
}

// InterviewService keeps the single interview bound to an application.
type InterviewService struct {
	store    interviewStore
	apps     applicationReader
	machine  ApplicationStateMachine
	notifier NotificationEmitter
	audit    auditLogger
	clock    Clock
	logger   *zap.Logger
}

// NewInterviewService constructs the service.
func NewInterviewService(store interviewStore, apps applicationReader, notifier NotificationEmitter, audit auditLogger, logger *zap.Logger) *InterviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterviewService{
		store:    store,
		apps:     apps,
		machine:  NewApplicationStateMachine(),
		notifier: notifier,
		audit:    audit,
		clock:    systemClock,
		logger:   logger,
	}
}

// WithClock overrides the time source and returns the service.
func (s *InterviewService) WithClock(clock Clock) *InterviewService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Schedule creates the interview or moves it to a new datetime. Allowed while
// the application is verified or under evaluation.
func (s *InterviewService) Schedule(ctx context.Context, actor models.Actor, applicationID string, req dto.ScheduleInterviewRequest) (*models.Interview, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Authorize(actor, app, ActionScheduleInterview); err != nil {
		return nil, err
	}
	if err := s.machine.Check(app.Status, ActionScheduleInterview); err != nil {
		return nil, err
	}
	now := s.clock()
	if req.ScheduledAt.IsZero() || !req.ScheduledAt.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled_at must be in the future")
	}

	interview, err := s.existing(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		interview = &models.Interview{ApplicationID: applicationID}
	} else if interview.Status == models.InterviewCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "interview has already been completed")
	}
	previous := interview.ScheduledAt
	interview.ScheduledAt = req.ScheduledAt.UTC()
	interview.Status = models.InterviewScheduled
	interview.ScheduledBy = actor.ID
	if remarks := optionalString(req.Remarks); remarks != nil {
		interview.Remarks = remarks
	}
	if err := s.store.Upsert(ctx, interview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save interview")
	}

	payload := map[string]interface{}{"scheduled_at": interview.ScheduledAt}
	if !previous.IsZero() {
		payload["previous_scheduled_at"] = previous
	}
	s.emit(ctx, models.NotificationInterviewScheduled, app, app.StudentID, payload)
	s.auditChange(ctx, actor, interview, "scheduled")
	return interview, nil
}

// RequestReschedule flags the interview for a new slot. Only the student who
// owns the application may ask; staff then call Schedule again.
func (s *InterviewService) RequestReschedule(ctx context.Context, actor models.Actor, applicationID string, req dto.InterviewOutcomeRequest) (*models.Interview, error) {
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent || app.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the applicant can request a reschedule")
	}
	interview, err := s.transitionInterview(ctx, app, "request_reschedule", models.InterviewRescheduled, func(i *models.Interview) {
		if notes := optionalString(req.Notes); notes != nil {
			i.Notes = notes
		}
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.NotificationRescheduleRequested, app, "", map[string]interface{}{
		"scheduled_at": interview.ScheduledAt,
		"notes":        req.Notes,
	})
	s.auditChange(ctx, actor, interview, "reschedule_requested")
	return interview, nil
}

// Complete records the outcome of a held interview.
func (s *InterviewService) Complete(ctx context.Context, actor models.Actor, applicationID string, req dto.InterviewOutcomeRequest) (*models.Interview, error) {
	return s.staffOutcome(ctx, actor, applicationID, "complete", models.InterviewCompleted, req)
}

// Cancel calls off a pending interview.
func (s *InterviewService) Cancel(ctx context.Context, actor models.Actor, applicationID string, req dto.InterviewOutcomeRequest) (*models.Interview, error) {
	return s.staffOutcome(ctx, actor, applicationID, "cancel", models.InterviewCancelled, req)
}

// Get returns the interview for an application visible to the actor.
func (s *InterviewService) Get(ctx context.Context, actor models.Actor, applicationID string) (*models.Interview, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && app.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "interview not found")
	}
	interview, err := s.existing(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "interview not found")
	}
	return interview, nil
}

func (s *InterviewService) staffOutcome(ctx context.Context, actor models.Actor, applicationID, action string, to models.InterviewStatus, req dto.InterviewOutcomeRequest) (*models.Interview, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if !containsRole(staffEvaluators, actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s may not %s interviews", actor.Role, action))
	}
	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	interview, err := s.transitionInterview(ctx, app, action, to, func(i *models.Interview) {
		if remarks := optionalString(req.Remarks); remarks != nil {
			i.Remarks = remarks
		}
		if notes := optionalString(req.Notes); notes != nil {
			i.Notes = notes
		}
	})
	if err != nil {
		return nil, err
	}
	s.auditChange(ctx, actor, interview, action)
	return interview, nil
}

// transitionInterview applies an interview follow-up. The application must
// still be in a stage that allows interviews.
func (s *InterviewService) transitionInterview(ctx context.Context, app *models.ScholarshipApplication, action string, to models.InterviewStatus, mutate func(*models.Interview)) (*models.Interview, error) {
	if !s.machine.Allowed(app.Status, ActionScheduleInterview) {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot %s interview while application is %s", action, app.Status),
			map[string]string{"action": action, "status": string(app.Status)})
	}
	interview, err := s.existing(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if interview == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "interview not found")
	}
	allowed := false
	for _, from := range interviewTransitions[action] {
		if interview.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot %s interview in status %s", action, interview.Status),
			map[string]string{"action": action, "status": string(interview.Status)})
	}
	interview.Status = to
	mutate(interview)
	if err := s.store.Upsert(ctx, interview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save interview")
	}
	return interview, nil
}

func (s *InterviewService) existing(ctx context.Context, applicationID string) (*models.Interview, error) {
	interview, err := s.store.GetByApplication(ctx, applicationID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load interview")
	}
	return interview, nil
}

func (s *InterviewService) loadApplication(ctx context.Context, id string) (*models.ScholarshipApplication, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *InterviewService) emit(ctx context.Context, kind models.NotificationType, app *models.ScholarshipApplication, recipient string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Emit(ctx, models.NotificationEvent{
		Type:          kind,
		ApplicationID: app.ID,
		RecipientID:   recipient,
		Payload:       payload,
		OccurredAt:    s.clock(),
	})
}

func (s *InterviewService) auditChange(ctx context.Context, actor models.Actor, interview *models.Interview, change string) {
	actorID := actor.ID
	resourceID := interview.ID
	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionApplicationTransition,
		Resource:   "interview",
		ResourceID: &resourceID,
		NewValues: auditValues(map[string]interface{}{
			"application_id": interview.ApplicationID,
			"status":         interview.Status,
			"scheduled_at":   interview.ScheduledAt.Format(time.RFC3339),
			"change":         change,
		}),
	})
}
