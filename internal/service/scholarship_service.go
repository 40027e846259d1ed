package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

const scholarshipCachePrefix = "scholarships:"

type scholarshipStore interface {
	Create(ctx context.Context, scholarship *models.Scholarship) error
	GetByID(ctx context.Context, id string) (*models.Scholarship, error)
	List(ctx context.Context, filter models.ScholarshipFilter) ([]models.Scholarship, int, error)
	Update(ctx context.Context, scholarship *models.Scholarship) error
}

type scholarshipCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, keys []string, patterns ...string)
}

// ScholarshipService manages program configuration. Reads are served from the
// cache when one is configured.
type ScholarshipService struct {
	repo      scholarshipStore
	slots     *SlotAllocator
	cache     scholarshipCache
	cacheTTL  time.Duration
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScholarshipService constructs the service. cache and audit may be nil.
func NewScholarshipService(repo scholarshipStore, slots *SlotAllocator, cache scholarshipCache, cacheTTL time.Duration, audit auditLogger, logger *zap.Logger) *ScholarshipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScholarshipService{
		repo:      repo,
		slots:     slots,
		cache:     cache,
		cacheTTL:  cacheTTL,
		audit:     audit,
		validator: validator.New(),
		logger:    logger,
	}
}

// Create registers a new scholarship program.
func (s *ScholarshipService) Create(ctx context.Context, actor models.Actor, req dto.UpsertScholarshipRequest) (*models.Scholarship, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validate(req, 0); err != nil {
		return nil, err
	}
	scholarship := &models.Scholarship{}
	applyScholarshipRequest(scholarship, req)
	if err := s.repo.Create(ctx, scholarship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create scholarship")
	}
	s.invalidate(ctx, scholarship.ID)
	s.auditChange(ctx, actor, nil, scholarship)
	return scholarship, nil
}

// Update rewrites a program. Slots may not drop below the number already awarded.
func (s *ScholarshipService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpsertScholarshipRequest) (*models.Scholarship, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(req, existing.ApprovedCount); err != nil {
		return nil, err
	}
	before := *existing
	updated := *existing
	applyScholarshipRequest(&updated, req)
	if err := s.repo.Update(ctx, &updated); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update scholarship")
	}
	s.invalidate(ctx, id)
	s.auditChange(ctx, actor, &before, &updated)
	return &updated, nil
}

// Get returns a scholarship, cached by id.
func (s *ScholarshipService) Get(ctx context.Context, id string) (*models.Scholarship, error) {
	if s.cache != nil {
		var cached models.Scholarship
		if s.cache.Get(ctx, scholarshipCachePrefix+id, &cached) {
			return &cached, nil
		}
	}
	scholarship, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, scholarshipCachePrefix+id, scholarship, s.cacheTTL)
	}
	return scholarship, nil
}

// GetByID satisfies the reader used by the workflow services.
func (s *ScholarshipService) GetByID(ctx context.Context, id string) (*models.Scholarship, error) {
	return s.Get(ctx, id)
}

// List returns scholarships with pagination metadata.
func (s *ScholarshipService) List(ctx context.Context, query dto.ScholarshipQuery) ([]models.Scholarship, *models.Pagination, error) {
	filter := models.ScholarshipFilter{
		Type:     models.ScholarshipType(strings.TrimSpace(query.Type)),
		Status:   models.ScholarshipStatus(strings.TrimSpace(query.Status)),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown scholarship type")
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scholarships")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// SlotUsage reports how many awards remain. Read straight from the database;
// the cached program copy may lag approved_count.
func (s *ScholarshipService) SlotUsage(ctx context.Context, actor models.Actor, id string) (*models.SlotUsage, error) {
	if !actor.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "slot usage is visible to staff only")
	}
	return s.slots.Usage(ctx, id)
}

func (s *ScholarshipService) validate(req dto.UpsertScholarshipRequest, approved int) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	var issues []models.Issue
	if !req.Type.Valid() {
		issues = append(issues, models.Issue{Code: models.IssueInvalidField, Field: "type", Message: fmt.Sprintf("unknown scholarship type %q", req.Type)})
	}
	c := req.Criteria
	if c.MinGWA != nil && c.MaxGWA != nil && *c.MinGWA > *c.MaxGWA {
		issues = append(issues, models.Issue{Code: models.IssueInvalidField, Field: "eligibility_criteria.min_gwa", Message: "min_gwa must not exceed max_gwa"})
	}
	if c.MinUnits < 0 || c.MaxUnits < 0 || (c.MaxUnits > 0 && c.MinUnits > c.MaxUnits) {
		issues = append(issues, models.Issue{Code: models.IssueInvalidField, Field: "eligibility_criteria.min_units", Message: "unit limits are inconsistent"})
	}
	if req.Slots > 0 && req.Slots < approved {
		issues = append(issues, models.Issue{Code: models.IssueInvalidField, Field: "slots",
			Message: fmt.Sprintf("slots cannot drop below the %d awards already approved", approved)})
	}
	seen := make(map[string]struct{}, len(req.RequiredDocuments))
	for _, doc := range req.RequiredDocuments {
		key := strings.TrimSpace(doc)
		if _, dup := seen[key]; dup {
			issues = append(issues, models.Issue{Code: models.IssueInvalidField, Field: "required_documents", Message: fmt.Sprintf("document type %q listed twice", key)})
		}
		seen[key] = struct{}{}
	}
	if len(issues) > 0 {
		return appErrors.WithDetails(appErrors.ErrValidation, "invalid scholarship", issues)
	}
	return nil
}

func applyScholarshipRequest(s *models.Scholarship, req dto.UpsertScholarshipRequest) {
	s.Name = strings.TrimSpace(req.Name)
	s.Type = req.Type
	s.Status = req.Status
	s.ApplicationDeadline = req.ApplicationDeadline.UTC()
	s.Slots = req.Slots
	s.StipendAmount = req.StipendAmount
	s.Criteria = req.Criteria
	docs := make([]string, 0, len(req.RequiredDocuments))
	for _, doc := range req.RequiredDocuments {
		docs = append(docs, strings.TrimSpace(doc))
	}
	s.RequiredDocuments = docs
}

func (s *ScholarshipService) requireAdmin(actor models.Actor) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can manage scholarships")
	}
	return nil
}

func (s *ScholarshipService) load(ctx context.Context, id string) (*models.Scholarship, error) {
	scholarship, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scholarship")
	}
	return scholarship, nil
}

func (s *ScholarshipService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, []string{scholarshipCachePrefix + id})
}

func (s *ScholarshipService) auditChange(ctx context.Context, actor models.Actor, before, after *models.Scholarship) {
	actorID := actor.ID
	resourceID := after.ID
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionScholarshipUpdate,
		Resource:   "scholarship",
		ResourceID: &resourceID,
		NewValues:  auditValues(after),
	}
	if before != nil {
		entry.OldValues = auditValues(before)
	}
	recordAudit(ctx, s.audit, s.logger, entry)
}
