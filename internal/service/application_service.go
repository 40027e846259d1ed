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

type applicationStore interface {
	Create(ctx context.Context, app *models.ScholarshipApplication) error
	GetByID(ctx context.Context, id string) (*models.ScholarshipApplication, error)
	FindActive(ctx context.Context, studentID, scholarshipID string) (*models.ScholarshipApplication, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ScholarshipApplication, int, error)
	SaveTransition(ctx context.Context, params repository.SaveTransitionParams) error
}

type scholarshipReader interface {
	GetByID(ctx context.Context, id string) (*models.Scholarship, error)
}

type approvedRenewalChecker interface {
	HasApproved(ctx context.Context, applicationID string) (bool, error)
}

type transitionMetrics interface {
	RecordTransition(action, from, to, outcome string)
	RecordCapacityRejection()
}

// ApplicationService drives scholarship applications through their lifecycle.
// Every status change goes through the same path: role gate, legality check,
// guards, then one versioned write that also carries the slot change.
type ApplicationService struct {
	apps         applicationStore
	scholarships scholarshipReader
	slots        *SlotAllocator
	machine      ApplicationStateMachine
	rules        EligibilityRuleSet
	ledger       *StipendLedger
	interviews   *InterviewService
	renewals     approvedRenewalChecker
	notifier     NotificationEmitter
	audit        auditLogger
	metrics      transitionMetrics
	validator    *validator.Validate
	clock        Clock
	logger       *zap.Logger
}

// ApplicationServiceOption configures the service.
type ApplicationServiceOption func(*ApplicationService)

// WithNotifier sets the notification emitter.
func WithNotifier(notifier NotificationEmitter) ApplicationServiceOption {
	return func(s *ApplicationService) { s.notifier = notifier }
}

// WithAuditLogger sets the audit sink.
func WithAuditLogger(audit auditLogger) ApplicationServiceOption {
	return func(s *ApplicationService) { s.audit = audit }
}

// WithTransitionMetrics sets the metrics recorder.
func WithTransitionMetrics(metrics transitionMetrics) ApplicationServiceOption {
	return func(s *ApplicationService) { s.metrics = metrics }
}

// WithClock overrides the time source.
func WithClock(clock Clock) ApplicationServiceOption {
	return func(s *ApplicationService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithStipendLedger sets the ledger used by RecordStipend.
func WithStipendLedger(ledger *StipendLedger) ApplicationServiceOption {
	return func(s *ApplicationService) {
		if ledger != nil {
			s.ledger = ledger
		}
	}
}

// WithInterviewScheduler sets the scheduler ScheduleInterview delegates to.
func WithInterviewScheduler(interviews *InterviewService) ApplicationServiceOption {
	return func(s *ApplicationService) { s.interviews = interviews }
}

// WithRenewalLookup sets the lookup used when an award ends as superseded.
func WithRenewalLookup(renewals approvedRenewalChecker) ApplicationServiceOption {
	return func(s *ApplicationService) { s.renewals = renewals }
}

// WithValidator overrides the request validator.
func WithValidator(validate *validator.Validate) ApplicationServiceOption {
	return func(s *ApplicationService) {
		if validate != nil {
			s.validator = validate
		}
	}
}

// NewApplicationService constructs the service with defaults.
func NewApplicationService(apps applicationStore, scholarships scholarshipReader, slots *SlotAllocator, logger *zap.Logger, opts ...ApplicationServiceOption) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ApplicationService{
		apps:         apps,
		scholarships: scholarships,
		slots:        slots,
		machine:      NewApplicationStateMachine(),
		rules:        NewEligibilityRuleSet(),
		ledger:       NewStipendLedger(nil),
		validator:    validator.New(),
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

// transitionContext is the working state of one transition. prepare hooks
// mutate next and may set guards, a ledger entry and extra events.
type transitionContext struct {
	actor       models.Actor
	current     *models.ScholarshipApplication
	next        *models.ScholarshipApplication
	scholarship *models.Scholarship
	guards      TransitionGuards
	stipend     *models.StipendDisbursement
	events      []models.NotificationEvent
	auditExtra  map[string]interface{}
	now         time.Time
}

type prepareFunc func(ctx context.Context, tc *transitionContext) error

// CreateDraft opens a draft application. A student may hold one active
// application per scholarship.
func (s *ApplicationService) CreateDraft(ctx context.Context, actor models.Actor, req dto.CreateApplicationRequest) (*models.ScholarshipApplication, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can open applications")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scholarship, err := s.loadScholarship(ctx, req.ScholarshipID)
	if err != nil {
		return nil, err
	}
	if !scholarship.AcceptingApplications(s.clock()) {
		return nil, notAccepting()
	}
	data, err := decodeData(s.validator, scholarship.Type, req.ApplicationData)
	if err != nil {
		return nil, err
	}
	if existing, err := s.apps.FindActive(ctx, actor.ID, scholarship.ID); err == nil && existing != nil {
		return nil, appErrors.WithDetails(appErrors.ErrConflict, "an active application for this scholarship already exists",
			map[string]string{"application_id": existing.ID})
	} else if err != nil && !isNoRows(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing applications")
	}

	app := &models.ScholarshipApplication{
		StudentID:       actor.ID,
		ScholarshipID:   scholarship.ID,
		ScholarshipType: scholarship.Type,
		Status:          models.ApplicationStatusDraft,
		Data:            data,
		Documents:       models.DocumentSet{},
	}
	if err := s.apps.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicateActive) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an active application for this scholarship already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	s.logger.Info("application draft created", zap.String("application_id", app.ID), zap.String("scholarship_id", app.ScholarshipID))
	return app, nil
}

// Get returns an application visible to the actor.
func (s *ApplicationService) Get(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error) {
	app, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.view(app), nil
}

// List returns applications. Students only see their own.
func (s *ApplicationService) List(ctx context.Context, actor models.Actor, query dto.ApplicationQuery) ([]models.ScholarshipApplication, *models.Pagination, error) {
	if actor.ID == "" {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.ApplicationFilter{
		ScholarshipID: query.ScholarshipID,
		StudentID:     query.StudentID,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	if actor.Role == models.RoleStudent {
		filter.StudentID = actor.ID
	} else if !actor.Role.IsStaff() {
		return nil, nil, appErrors.ErrForbidden
	}
	for _, raw := range strings.Split(query.Status, ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.Status = append(filter.Status, models.ApplicationStatus(strings.ToLower(raw)))
		}
	}
	apps, total, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	if apps == nil {
		apps = []models.ScholarshipApplication{}
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 50
	}
	return apps, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// PreviewEligibility evaluates every rule without side effects.
func (s *ApplicationService) PreviewEligibility(ctx context.Context, actor models.Actor, req dto.PreviewEligibilityRequest) (*models.EligibilityResult, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scholarship, err := s.loadScholarship(ctx, req.ScholarshipID)
	if err != nil {
		return nil, err
	}
	data, err := decodeData(s.validator, scholarship.Type, req.ApplicationData)
	if err != nil {
		return nil, err
	}
	profile := req.Profile
	if actor.Role == models.RoleStudent {
		profile.StudentID = actor.ID
	}
	result := s.rules.Preview(scholarship, profile, data, s.clock())
	if result.Issues == nil {
		result.Issues = []models.Issue{}
	}
	return &result, nil
}

// UpdateDocument replaces one document entry and resets it to pending. The
// application status does not change.
func (s *ApplicationService) UpdateDocument(ctx context.Context, actor models.Actor, id string, req dto.UploadDocumentRequest) (*models.ScholarshipApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.transition(ctx, actor, id, ActionUpdateDocument, func(_ context.Context, tc *transitionContext) error {
		if !tc.scholarship.RequiresDocument(req.Type) {
			return unknownDocumentType(req.Type)
		}
		tc.next.Documents = ReplaceDocument(tc.next.Documents, req.Type, req.File, tc.now)
		return nil
	})
}

// Submit moves a draft into the verification queue. Every required document
// must be present, the scholarship must be accepting applications and the
// eligibility rules must pass.
func (s *ApplicationService) Submit(ctx context.Context, actor models.Actor, id string, req dto.SubmitApplicationRequest) (*models.ScholarshipApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.transition(ctx, actor, id, ActionSubmit, func(_ context.Context, tc *transitionContext) error {
		if !tc.scholarship.AcceptingApplications(tc.now) {
			return notAccepting()
		}
		for _, docType := range sortedUploadTypes(req.Documents) {
			if !tc.scholarship.RequiresDocument(docType) {
				return unknownDocumentType(docType)
			}
			tc.next.Documents = ReplaceDocument(tc.next.Documents, docType, req.Documents[docType], tc.now)
		}
		if len(req.ApplicationData) > 0 {
			data, err := decodeData(s.validator, tc.scholarship.Type, req.ApplicationData)
			if err != nil {
				return err
			}
			tc.next.Data = data
		}

		var issues []models.Issue
		checklist := NewDocumentChecklist(tc.scholarship.RequiredDocuments, tc.next.Documents)
		for _, missing := range checklist.Missing() {
			issues = append(issues, models.Issue{
				Code:    models.IssueMissingDocument,
				Field:   "uploaded_documents." + missing,
				Message: fmt.Sprintf("required document %s has not been uploaded", missing),
			})
		}
		profile := req.Profile
		profile.StudentID = tc.current.StudentID
		issues = append(issues, s.rules.Evaluate(tc.scholarship, profile, tc.next.Data, tc.now)...)
		if len(issues) > 0 {
			return appErrors.WithDetails(appErrors.ErrValidation, "application cannot be submitted", issues)
		}
		tc.events = append(tc.events, s.event(models.NotificationSubmission, tc.next, tc.next.StudentID, map[string]interface{}{
			"scholarship_id": tc.next.ScholarshipID,
		}))
		// the profile is not stored on the application; keep the one that passed
		tc.auditExtra = map[string]interface{}{"profile": profile}
		return nil
	})
}

// BeginVerification takes a submitted application into the verification queue.
func (s *ApplicationService) BeginVerification(ctx context.Context, actor models.Actor, id string) (*models.ScholarshipApplication, error) {
	return s.transition(ctx, actor, id, ActionBeginVerification, nil)
}

// VerifyDocument records the verifier's decision on one uploaded document.
func (s *ApplicationService) VerifyDocument(ctx context.Context, actor models.Actor, id, docType string, req dto.VerifyDocumentRequest) (*models.ScholarshipApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	comment := optionalString(req.Comment)
	if req.Status == models.DocumentRejected && comment == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a comment is required when rejecting a document")
	}
	return s.transition(ctx, actor, id, ActionVerifyDocument, func(_ context.Context, tc *transitionContext) error {
		docs, err := SetDocumentVerification(tc.next.Documents, docType, req.Status, comment)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		tc.next.Documents = docs
		if req.Status == models.DocumentRejected {
			tc.events = append(tc.events, s.event(models.NotificationDocumentRejected, tc.next, tc.next.StudentID, map[string]interface{}{
				"document_type": docType,
				"comment":       *comment,
			}))
		}
		return nil
	})
}

// MarkVerified completes verification. Unless every required document is
// uploaded and verified the application becomes incomplete instead.
func (s *ApplicationService) MarkVerified(ctx context.Context, actor models.Actor, id string, req dto.CommentRequest) (*models.ScholarshipApplication, error) {
	return s.transition(ctx, actor, id, ActionMarkVerified, func(_ context.Context, tc *transitionContext) error {
		checklist := NewDocumentChecklist(tc.scholarship.RequiredDocuments, tc.next.Documents)
		tc.guards.DocumentsResolved = checklist.Resolved()
		comments := optionalString(req.Comments)
		if !tc.guards.DocumentsResolved && comments == nil {
			summary := checklist.Summary()
			comments = &summary
		}
		if comments != nil {
			tc.next.VerifierComments = comments
		}
		return nil
	})
}

// MarkIncomplete sends the application back to the student for corrections.
func (s *ApplicationService) MarkIncomplete(ctx context.Context, actor models.Actor, id string, req dto.CommentRequest) (*models.ScholarshipApplication, error) {
	comments := optionalString(req.Comments)
	if comments == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comments are required when marking an application incomplete")
	}
	return s.transition(ctx, actor, id, ActionMarkIncomplete, func(_ context.Context, tc *transitionContext) error {
		tc.next.VerifierComments = comments
		return nil
	})
}

// Resubmit returns a corrected application to verification. applied_at is kept.
func (s *ApplicationService) Resubmit(ctx context.Context, actor models.Actor, id string) (*models.ScholarshipApplication, error) {
	return s.transition(ctx, actor, id, ActionResubmit, func(_ context.Context, tc *transitionContext) error {
		checklist := NewDocumentChecklist(tc.scholarship.RequiredDocuments, tc.next.Documents)
		if !checklist.Correctable() {
			return appErrors.WithDetails(appErrors.ErrValidation, "documents still need correction", checklist.Issues())
		}
		return nil
	})
}

// Evaluate hands a verified application to the committee.
func (s *ApplicationService) Evaluate(ctx context.Context, actor models.Actor, id string, req dto.EvaluateRequest) (*models.ScholarshipApplication, error) {
	return s.transition(ctx, actor, id, ActionEvaluate, func(_ context.Context, tc *transitionContext) error {
		if rec := optionalString(req.Recommendation); rec != nil {
			tc.next.CommitteeRecommendation = rec
		}
		return nil
	})
}

// Approve awards the scholarship, consuming one slot.
func (s *ApplicationService) Approve(ctx context.Context, actor models.Actor, id string, req dto.ApproveRequest) (*models.ScholarshipApplication, error) {
	return s.transition(ctx, actor, id, ActionApprove, func(_ context.Context, tc *transitionContext) error {
		if notes := optionalString(req.Notes); notes != nil {
			tc.next.AdminRemarks = notes
		}
		return nil
	})
}

// Reject closes the application. A reason is mandatory.
func (s *ApplicationService) Reject(ctx context.Context, actor models.Actor, id string, req dto.ReasonRequest) (*models.ScholarshipApplication, error) {
	return s.closeWithReason(ctx, actor, id, ActionReject, req.Reason)
}

// Revoke reverses an approval as an administrative correction and releases the slot.
func (s *ApplicationService) Revoke(ctx context.Context, actor models.Actor, id string, req dto.ReasonRequest) (*models.ScholarshipApplication, error) {
	return s.closeWithReason(ctx, actor, id, ActionRevoke, req.Reason)
}

func (s *ApplicationService) closeWithReason(ctx context.Context, actor models.Actor, id string, action ApplicationAction, reason string) (*models.ScholarshipApplication, error) {
	remarks := optionalString(reason)
	if remarks == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a reason is required")
	}
	return s.transition(ctx, actor, id, action, func(_ context.Context, tc *transitionContext) error {
		tc.next.AdminRemarks = remarks
		return nil
	})
}

// EndAward closes an approved award when its term concludes or a renewal supersedes it.
func (s *ApplicationService) EndAward(ctx context.Context, actor models.Actor, id string, req dto.EndAwardRequest) (*models.ScholarshipApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.transition(ctx, actor, id, ActionEndAward, func(ctx context.Context, tc *transitionContext) error {
		if req.Reason == dto.EndAwardSuperseded {
			if s.renewals == nil {
				return appErrors.Clone(appErrors.ErrInternal, "renewal lookup not configured")
			}
			ok, err := s.renewals.HasApproved(ctx, tc.current.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check renewals")
			}
			if !ok {
				return appErrors.Clone(appErrors.ErrValidation, "award can only be superseded by an approved renewal")
			}
		}
		remarks := fmt.Sprintf("award ended: %s", req.Reason)
		if extra := optionalString(req.Remarks); extra != nil {
			remarks += " - " + *extra
		}
		tc.next.AdminRemarks = &remarks
		return nil
	})
}

// RecordStipend appends a disbursement to an approved award.
func (s *ApplicationService) RecordStipend(ctx context.Context, actor models.Actor, id string, req dto.RecordStipendRequest) (*models.ScholarshipApplication, error) {
	return s.transition(ctx, actor, id, ActionRecordStipend, func(_ context.Context, tc *transitionContext) error {
		entry, err := s.ledger.Record(tc.next, req.Amount, tc.actor.ID, optionalString(req.Note), tc.now)
		if err != nil {
			return err
		}
		tc.stipend = entry
		tc.events = append(tc.events, s.event(models.NotificationStipendRecorded, tc.next, tc.next.StudentID, map[string]interface{}{
			"amount":          entry.Amount,
			"amount_received": tc.next.AmountReceived,
		}))
		return nil
	})
}

// StipendHistory lists disbursements of an application visible to the actor.
func (s *ApplicationService) StipendHistory(ctx context.Context, actor models.Actor, id string) ([]models.StipendDisbursement, error) {
	if _, err := s.loadVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, id)
}

// ScheduleInterview delegates to the interview scheduler.
func (s *ApplicationService) ScheduleInterview(ctx context.Context, actor models.Actor, id string, req dto.ScheduleInterviewRequest) (*models.Interview, error) {
	if s.interviews == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "interview scheduler not configured")
	}
	return s.interviews.Schedule(ctx, actor, id, req)
}

func (s *ApplicationService) transition(ctx context.Context, actor models.Actor, id string, action ApplicationAction, prepare prepareFunc) (*models.ScholarshipApplication, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Authorize(actor, current, action); err != nil {
		return nil, err
	}
	if err := s.machine.Check(current.Status, action); err != nil {
		s.recordOutcome(action, current.Status, current.Status, "invalid")
		s.logger.Info("rejected illegal transition", zap.String("application_id", id), zap.String("action", string(action)), zap.String("status", string(current.Status)))
		return nil, err
	}
	scholarship, err := s.loadScholarship(ctx, current.ScholarshipID)
	if err != nil {
		return nil, err
	}

	tc := &transitionContext{
		actor:       actor,
		current:     current,
		next:        current.Clone(),
		scholarship: scholarship,
		now:         s.clock(),
	}
	if prepare != nil {
		if err := prepare(ctx, tc); err != nil {
			s.recordOutcome(action, current.Status, current.Status, "rejected")
			return nil, err
		}
	}
	to, err := s.machine.Next(current.Status, action, tc.guards)
	if err != nil {
		return nil, err
	}
	tc.next.Status = to
	stampLifecycle(tc.next, current.Status, to, tc.now)

	params := repository.SaveTransitionParams{
		Application:     tc.next,
		ExpectedVersion: current.Version,
		Slot:            s.slots.Plan(current.Status, to),
		Stipend:         tc.stipend,
	}
	if err := s.apps.SaveTransition(ctx, params); err != nil {
		return nil, s.saveError(ctx, tc, action, err)
	}

	s.recordOutcome(action, current.Status, to, "committed")
	s.afterCommit(ctx, tc, action)
	return tc.next, nil
}

func (s *ApplicationService) saveError(ctx context.Context, tc *transitionContext, action ApplicationAction, err error) error {
	switch {
	case errors.Is(err, repository.ErrNoSlotAvailable):
		s.recordOutcome(action, tc.current.Status, tc.current.Status, "capacity_exceeded")
		if s.metrics != nil {
			s.metrics.RecordCapacityRejection()
		}
		s.logger.Info("approval rejected: no slots", zap.String("application_id", tc.current.ID), zap.String("scholarship_id", tc.current.ScholarshipID))
		return s.slots.CapacityError(ctx, tc.current.ScholarshipID)
	case errors.Is(err, repository.ErrStaleVersion):
		s.recordOutcome(action, tc.current.Status, tc.current.Status, "conflict")
		return appErrors.Clone(appErrors.ErrConflict, "application was modified by another request; reload and try again")
	}
	s.logger.Error("failed to save application transition", zap.String("application_id", tc.current.ID), zap.String("action", string(action)), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save application")
}

func (s *ApplicationService) afterCommit(ctx context.Context, tc *transitionContext, action ApplicationAction) {
	from, to := tc.current.Status, tc.next.Status
	auditAction := models.AuditActionApplicationTransition
	switch action {
	case ActionUpdateDocument, ActionVerifyDocument:
		auditAction = models.AuditActionDocumentUpdate
	case ActionRecordStipend:
		auditAction = models.AuditActionStipendRecorded
	}
	actorID := tc.actor.ID
	resourceID := tc.next.ID
	newValues := map[string]interface{}{
		"status":    to,
		"version":   tc.next.Version,
		"action":    action,
		"documents": sortedDocumentTypes(tc.next.Documents),
	}
	for k, v := range tc.auditExtra {
		newValues[k] = v
	}
	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actorID,
		Action:     auditAction,
		Resource:   applicationAuditResource,
		ResourceID: &resourceID,
		OldValues:  auditValues(map[string]interface{}{"status": from, "version": tc.current.Version}),
		NewValues:  auditValues(newValues),
	})

	if s.notifier == nil {
		return
	}
	if from != to {
		s.notifier.Emit(ctx, s.event(models.NotificationStatusChange, tc.next, tc.next.StudentID, map[string]interface{}{
			"from":   from,
			"to":     to,
			"action": action,
		}))
	}
	for _, event := range tc.events {
		s.notifier.Emit(ctx, event)
	}
}

func (s *ApplicationService) recordOutcome(action ApplicationAction, from, to models.ApplicationStatus, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTransition(string(action), string(from), string(to), outcome)
}

func (s *ApplicationService) event(kind models.NotificationType, app *models.ScholarshipApplication, recipient string, payload map[string]interface{}) models.NotificationEvent {
	return models.NotificationEvent{
		Type:          kind,
		ApplicationID: app.ID,
		RecipientID:   recipient,
		Payload:       payload,
		OccurredAt:    s.clock(),
	}
}

func (s *ApplicationService) view(app *models.ScholarshipApplication) *dto.ApplicationView {
	actions := s.machine.AllowedActions(app.Status)
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return &dto.ApplicationView{ScholarshipApplication: app, AllowedActions: names}
}

func (s *ApplicationService) load(ctx context.Context, id string) (*models.ScholarshipApplication, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) loadVisible(ctx context.Context, actor models.Actor, id string) (*models.ScholarshipApplication, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && app.StudentID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	if actor.Role != models.RoleStudent && !actor.Role.IsStaff() {
		return nil, appErrors.ErrForbidden
	}
	return app, nil
}

func (s *ApplicationService) loadScholarship(ctx context.Context, id string) (*models.Scholarship, error) {
	scholarship, err := s.scholarships.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) || errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scholarship")
	}
	return scholarship, nil
}

// stampLifecycle sets the timestamp that belongs to the status being entered.
func stampLifecycle(app *models.ScholarshipApplication, from, to models.ApplicationStatus, now time.Time) {
	if from == to {
		return
	}
	switch to {
	case models.ApplicationStatusSubmitted, models.ApplicationStatusUnderVerification:
		stampOnce(&app.AppliedAt, now)
	case models.ApplicationStatusVerified:
		stampOnce(&app.VerifiedAt, now)
	case models.ApplicationStatusApproved:
		stampOnce(&app.ApprovedAt, now)
	case models.ApplicationStatusRejected:
		stampOnce(&app.RejectedAt, now)
	case models.ApplicationStatusEnd:
		stampOnce(&app.EndedAt, now)
	}
}

func notAccepting() error {
	return appErrors.WithDetails(appErrors.ErrValidation, "scholarship is not accepting applications", []models.Issue{{
		Code:    models.IssueNotAcceptingApplicants,
		Field:   "scholarship_id",
		Message: "the application deadline has passed or the scholarship is inactive",
	}})
}

func unknownDocumentType(docType string) error {
	return appErrors.WithDetails(appErrors.ErrValidation, "document type is not required by this scholarship", []models.Issue{{
		Code:    models.IssueUnknownDocumentType,
		Field:   "uploaded_documents." + docType,
		Message: fmt.Sprintf("%s is not on the required document list", docType),
	}})
}

func sortedUploadTypes(files map[string]models.UploadedFile) []string {
	docs := make(models.DocumentSet, len(files))
	for t := range files {
		docs[t] = models.Document{}
	}
	return sortedDocumentTypes(docs)
}
