package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/repository"
)

var fixedNow = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func floatPtr(v float64) *float64 { return &v }

var (
	studentActor   = models.Actor{ID: "student-1", Role: models.RoleStudent}
	otherStudent   = models.Actor{ID: "student-2", Role: models.RoleStudent}
	verifierActor  = models.Actor{ID: "verifier-1", Role: models.RoleVerifier}
	evaluatorActor = models.Actor{ID: "evaluator-1", Role: models.RoleEvaluator}
	approverActor  = models.Actor{ID: "approver-1", Role: models.RoleApprover}
	adminActor     = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
)

// workflowStore is an in-memory application store. SaveTransition mirrors the
// SQL repository: the slot change and the versioned update commit together.
type workflowStore struct {
	mu           sync.Mutex
	apps         map[string]*models.ScholarshipApplication
	scholarships map[string]*models.Scholarship
	stipends     []models.StipendDisbursement
	saveErr      error
	seq          int
}

func newWorkflowStore(scholarships ...*models.Scholarship) *workflowStore {
	s := &workflowStore{
		apps:         map[string]*models.ScholarshipApplication{},
		scholarships: map[string]*models.Scholarship{},
	}
	for _, sch := range scholarships {
		s.scholarships[sch.ID] = sch
	}
	return s
}

func (s *workflowStore) put(app *models.ScholarshipApplication) *models.ScholarshipApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.Version == 0 {
		app.Version = 1
	}
	if app.Documents == nil {
		app.Documents = models.DocumentSet{}
	}
	s.apps[app.ID] = app.Clone()
	return app
}

func (s *workflowStore) Create(ctx context.Context, app *models.ScholarshipApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.apps {
		if existing.StudentID == app.StudentID && existing.ScholarshipID == app.ScholarshipID && existing.Status.Active() {
			return repository.ErrDuplicateActive
		}
	}
	s.seq++
	app.ID = fmt.Sprintf("app-%d", s.seq)
	app.Version = 1
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *workflowStore) GetByID(ctx context.Context, id string) (*models.ScholarshipApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return app.Clone(), nil
}

func (s *workflowStore) FindActive(ctx context.Context, studentID, scholarshipID string) (*models.ScholarshipApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.StudentID == studentID && app.ScholarshipID == scholarshipID && app.Status.Active() {
			return app.Clone(), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *workflowStore) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ScholarshipApplication, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScholarshipApplication
	for _, app := range s.apps {
		if filter.StudentID != "" && app.StudentID != filter.StudentID {
			continue
		}
		if filter.ScholarshipID != "" && app.ScholarshipID != filter.ScholarshipID {
			continue
		}
		if len(filter.Status) > 0 {
			match := false
			for _, st := range filter.Status {
				match = match || st == app.Status
			}
			if !match {
				continue
			}
		}
		out = append(out, *app.Clone())
	}
	return out, len(out), nil
}

func (s *workflowStore) SaveTransition(ctx context.Context, params repository.SaveTransitionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	app := params.Application
	stored, ok := s.apps[app.ID]
	if !ok || stored.Version != params.ExpectedVersion {
		return repository.ErrStaleVersion
	}
	sch := s.scholarships[app.ScholarshipID]
	switch params.Slot {
	case repository.SlotReserve:
		if sch.Slots > 0 && sch.ApprovedCount >= sch.Slots {
			return repository.ErrNoSlotAvailable
		}
		sch.ApprovedCount++
	case repository.SlotRelease:
		if sch.ApprovedCount > 0 {
			sch.ApprovedCount--
		}
	}
	if params.Stipend != nil {
		s.stipends = append(s.stipends, *params.Stipend)
	}
	app.Version = params.ExpectedVersion + 1
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *workflowStore) Usage(ctx context.Context, scholarshipID string) (*models.SlotUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.scholarships[scholarshipID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	usage := &models.SlotUsage{ScholarshipID: sch.ID, Slots: sch.Slots, Approved: sch.ApprovedCount}
	usage.Normalize()
	return usage, nil
}

func (s *workflowStore) ListByApplication(ctx context.Context, applicationID string) ([]models.StipendDisbursement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StipendDisbursement
	for _, entry := range s.stipends {
		if entry.ApplicationID == applicationID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *workflowStore) approvedCount(scholarshipID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scholarships[scholarshipID].ApprovedCount
}

// scholarshipLookup serves scholarships from the same store so slot counts agree.
type scholarshipLookup struct{ store *workflowStore }

func (l scholarshipLookup) GetByID(ctx context.Context, id string) (*models.Scholarship, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	sch, ok := l.store.scholarships[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *sch
	return &c, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (n *recordingNotifier) Emit(ctx context.Context, event models.NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) ofType(kind models.NotificationType) []models.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.NotificationEvent
	for _, e := range n.events {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

type auditRecorder struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, *log)
	return nil
}

type transitionCounter struct {
	mu         sync.Mutex
	outcomes   map[string]int
	capacities int
}

func (c *transitionCounter) RecordTransition(action, from, to, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}

func (c *transitionCounter) RecordCapacityRejection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacities++
}

func academicScholarship(id string, slots, approved int) *models.Scholarship {
	return &models.Scholarship{
		ID:                  id,
		Name:                "Dean's List",
		Type:                models.ScholarshipTypeAcademicFull,
		Status:              models.ScholarshipStatusActive,
		ApplicationDeadline: fixedNow.AddDate(0, 1, 0),
		Slots:               slots,
		ApprovedCount:       approved,
		Criteria:            models.EligibilityCriteria{MinGWA: floatPtr(1.0), MaxGWA: floatPtr(1.75)},
		RequiredDocuments:   []string{"grades", "enrollment_form", "id_photo"},
	}
}

func eligibleProfile() models.StudentProfile {
	return models.StudentProfile{EnrollmentStatus: models.EnrollmentStatusEnrolled, UnitsEnrolled: 21, CurrentGWA: 1.5}
}

func uploaded(name string) models.UploadedFile {
	return models.UploadedFile{Path: "uploads/" + name + ".pdf", OriginalName: name + ".pdf", Size: 1024, MimeType: "application/pdf"}
}

func documentsWithStatus(status models.DocumentVerificationStatus, types ...string) models.DocumentSet {
	docs := models.DocumentSet{}
	for _, t := range types {
		docs[t] = models.Document{Type: t, Path: "uploads/" + t, UploadedAt: fixedNow, VerificationStatus: status}
	}
	return docs
}

type workflowHarness struct {
	store    *workflowStore
	notifier *recordingNotifier
	audit    *auditRecorder
	metrics  *transitionCounter
	svc      *ApplicationService
}

func newWorkflowHarness(scholarships ...*models.Scholarship) *workflowHarness {
	store := newWorkflowStore(scholarships...)
	h := &workflowHarness{
		store:    store,
		notifier: &recordingNotifier{},
		audit:    &auditRecorder{},
		metrics:  &transitionCounter{},
	}
	h.svc = NewApplicationService(store, scholarshipLookup{store: store}, NewSlotAllocator(store), nil,
		WithNotifier(h.notifier),
		WithAuditLogger(h.audit),
		WithTransitionMetrics(h.metrics),
		WithClock(fixedClock),
		WithStipendLedger(NewStipendLedger(store)),
	)
	return h
}
