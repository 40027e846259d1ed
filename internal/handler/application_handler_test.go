package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type applicationServiceMock struct {
	lastActor  models.Actor
	lastID     string
	lastDoc    string
	lastQuery  dto.ApplicationQuery
	lastSubmit dto.SubmitApplicationRequest
	lastReason dto.ReasonRequest
	err        error
	calls      []string
}

func (m *applicationServiceMock) record(actor models.Actor, id, call string) (*models.ScholarshipApplication, error) {
	m.lastActor = actor
	m.lastID = id
	m.calls = append(m.calls, call)
	if m.err != nil {
		return nil, m.err
	}
	return &models.ScholarshipApplication{ID: id, Status: models.ApplicationStatusUnderVerification, Version: 2}, nil
}

func (m *applicationServiceMock) CreateDraft(ctx context.Context, actor models.Actor, req dto.CreateApplicationRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, "app-new", "create")
}

func (m *applicationServiceMock) Get(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error) {
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ApplicationView{}, nil
}

func (m *applicationServiceMock) List(ctx context.Context, actor models.Actor, query dto.ApplicationQuery) ([]models.ScholarshipApplication, *models.Pagination, error) {
	m.lastActor = actor
	m.lastQuery = query
	if m.err != nil {
		return nil, nil, m.err
	}
	return []models.ScholarshipApplication{{ID: "app-1"}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (m *applicationServiceMock) PreviewEligibility(ctx context.Context, actor models.Actor, req dto.PreviewEligibilityRequest) (*models.EligibilityResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.EligibilityResult{Eligible: true}, nil
}

func (m *applicationServiceMock) UpdateDocument(ctx context.Context, actor models.Actor, id string, req dto.UploadDocumentRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "document")
}

func (m *applicationServiceMock) Submit(ctx context.Context, actor models.Actor, id string, req dto.SubmitApplicationRequest) (*models.ScholarshipApplication, error) {
	m.lastSubmit = req
	return m.record(actor, id, "submit")
}

func (m *applicationServiceMock) Resubmit(ctx context.Context, actor models.Actor, id string) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "resubmit")
}

func (m *applicationServiceMock) BeginVerification(ctx context.Context, actor models.Actor, id string) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "begin_verification")
}

func (m *applicationServiceMock) VerifyDocument(ctx context.Context, actor models.Actor, id, docType string, req dto.VerifyDocumentRequest) (*models.ScholarshipApplication, error) {
	m.lastDoc = docType
	return m.record(actor, id, "verify_document")
}

func (m *applicationServiceMock) MarkVerified(ctx context.Context, actor models.Actor, id string, req dto.CommentRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "verify")
}

func (m *applicationServiceMock) MarkIncomplete(ctx context.Context, actor models.Actor, id string, req dto.CommentRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "incomplete")
}

func (m *applicationServiceMock) Evaluate(ctx context.Context, actor models.Actor, id string, req dto.EvaluateRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "evaluate")
}

func (m *applicationServiceMock) Approve(ctx context.Context, actor models.Actor, id string, req dto.ApproveRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "approve")
}

func (m *applicationServiceMock) Reject(ctx context.Context, actor models.Actor, id string, req dto.ReasonRequest) (*models.ScholarshipApplication, error) {
	m.lastReason = req
	return m.record(actor, id, "reject")
}

func (m *applicationServiceMock) Revoke(ctx context.Context, actor models.Actor, id string, req dto.ReasonRequest) (*models.ScholarshipApplication, error) {
	m.lastReason = req
	return m.record(actor, id, "revoke")
}

func (m *applicationServiceMock) EndAward(ctx context.Context, actor models.Actor, id string, req dto.EndAwardRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "end_award")
}

func (m *applicationServiceMock) RecordStipend(ctx context.Context, actor models.Actor, id string, req dto.RecordStipendRequest) (*models.ScholarshipApplication, error) {
	return m.record(actor, id, "stipend")
}

func (m *applicationServiceMock) StipendHistory(ctx context.Context, actor models.Actor, id string) ([]models.StipendDisbursement, error) {
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return []models.StipendDisbursement{{ApplicationID: id, Amount: 5000}}, nil
}

func TestApplicationHandlerCreateReturnsCreated(t *testing.T) {
	svc := &applicationServiceMock{}
	handler := NewApplicationHandler(svc)
	c, w := newTestContext(http.MethodPost, "/applications", dto.CreateApplicationRequest{ScholarshipID: "sch-1"}, models.RoleStudent)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.Actor{ID: "student-1", Role: models.RoleStudent}, svc.lastActor)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestApplicationHandlerCreateInvalidBody(t *testing.T) {
	svc := &applicationServiceMock{}
	handler := NewApplicationHandler(svc)
	c, w := newTestContext(http.MethodPost, "/applications", "invalid", models.RoleStudent)

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Empty(t, svc.calls)
}

func TestApplicationHandlerListPassesQueryAndPagination(t *testing.T) {
	svc := &applicationServiceMock{}
	handler := NewApplicationHandler(svc)
	c, w := newTestContext(http.MethodGet, "/applications?scholarship_id=sch-1&status=approved,ended&page=2", nil, models.RoleAdmin)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sch-1", svc.lastQuery.ScholarshipID)
	assert.Equal(t, "approved,ended", svc.lastQuery.Status)
	assert.Equal(t, 2, svc.lastQuery.Page)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestApplicationHandlerSubmitSurfacesEligibilityDetails(t *testing.T) {
	svc := &applicationServiceMock{err: appErrors.WithDetails(appErrors.ErrValidation, "application is not eligible", []models.Issue{
		{Code: models.IssueGWAAboveMaximum, Field: "gwa", Message: "GWA 2.75 exceeds the maximum of 2.50"},
	})}
	handler := NewApplicationHandler(svc)
	c, w := newTestContext(http.MethodPost, "/applications/app-1/submit", dto.SubmitApplicationRequest{}, models.RoleStudent, idParam("app-1"))

	handler.Submit(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Contains(t, string(env.Error.Details), "gwa")
	assert.Equal(t, "app-1", svc.lastID)
}

func TestApplicationHandlerOptionalBodies(t *testing.T) {
	svc := &applicationServiceMock{}
	handler := NewApplicationHandler(svc)

	for name, call := range map[string]func(*gin.Context){
		"verify":   handler.MarkVerified,
		"evaluate": handler.Evaluate,
		"approve":  handler.Approve,
	} {
		t.Run(name, func(t *testing.T) {
			c, w := newTestContext(http.MethodPost, "/applications/app-1/"+name, nil, models.RoleAdmin, idParam("app-1"))
			c.Request.ContentLength = 0
			call(c)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
	assert.ElementsMatch(t, []string{"verify", "evaluate", "approve"}, svc.calls)
}

func TestApplicationHandlerRejectRequiresBody(t *testing.T) {
	svc := &applicationServiceMock{}
	handler := NewApplicationHandler(svc)
	c, w := newTestContext(http.MethodPost, "/applications/app-1/reject", nil, models.RoleApprover, idParam("app-1"))

	handler.Reject(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.calls)
}

func TestApplicationHandlerVerifyDocumentUsesTypeParam(t *testing.T) {
	svc := &applicationServiceMock{}
	handler := NewApplicationHandler(svc)
	c, w := newTestContext(http.MethodPost, "/applications/app-1/documents/grades/verify",
		dto.VerifyDocumentRequest{Status: models.DocumentVerified}, models.RoleVerifier,
		idParam("app-1"), gin.Param{Key: "type", Value: "grades"})

	handler.VerifyDocument(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "grades", svc.lastDoc)
}

func TestApplicationHandlerMapsWorkflowErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"capacity":   {appErrors.ErrCapacityExceeded, http.StatusConflict},
		"transition": {appErrors.Clone(appErrors.ErrInvalidStateTransition, "cannot approve draft"), http.StatusConflict},
		"forbidden":  {appErrors.ErrForbidden, http.StatusForbidden},
		"not found":  {appErrors.ErrNotFound, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := NewApplicationHandler(&applicationServiceMock{err: tc.err})
			c, w := newTestContext(http.MethodPost, "/applications/app-1/approve", nil, models.RoleApprover, idParam("app-1"))
			c.Request.ContentLength = 0

			handler.Approve(c)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestApplicationHandlerStipendHistory(t *testing.T) {
	svc := &applicationServiceMock{}
	handler := NewApplicationHandler(svc)
	c, w := newTestContext(http.MethodGet, "/applications/app-1/stipends", nil, models.RoleStudent, idParam("app-1"))

	handler.StipendHistory(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"application_id":"app-1"`)
}
