package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/service"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type scholarshipServiceMock struct {
	lastQuery dto.ScholarshipQuery
	usage     *models.SlotUsage
	err       error
}

func (m *scholarshipServiceMock) Create(ctx context.Context, actor models.Actor, req dto.UpsertScholarshipRequest) (*models.Scholarship, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Scholarship{ID: "sch-1", Name: req.Name}, nil
}

func (m *scholarshipServiceMock) Update(ctx context.Context, actor models.Actor, id string, req dto.UpsertScholarshipRequest) (*models.Scholarship, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Scholarship{ID: id, Name: req.Name}, nil
}

func (m *scholarshipServiceMock) Get(ctx context.Context, id string) (*models.Scholarship, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Scholarship{ID: id}, nil
}

func (m *scholarshipServiceMock) List(ctx context.Context, query dto.ScholarshipQuery) ([]models.Scholarship, *models.Pagination, error) {
	m.lastQuery = query
	return []models.Scholarship{{ID: "sch-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *scholarshipServiceMock) SlotUsage(ctx context.Context, actor models.Actor, id string) (*models.SlotUsage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.usage, nil
}

type rosterExporterMock struct {
	format models.ExportFormat
	err    error
}

func (m *rosterExporterMock) AwardeeRoster(ctx context.Context, actor models.Actor, scholarshipID string, format models.ExportFormat) (*service.ExportResult, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportResult{
		Filename:    "awardees_merit_20240510.csv",
		ContentType: "text/csv",
		Data:        []byte("student_id,approved_at\nstudent-1,2024-01-15\n"),
		Rows:        1,
	}, nil
}

func TestScholarshipHandlerListBindsQuery(t *testing.T) {
	svc := &scholarshipServiceMock{}
	handler := NewScholarshipHandler(svc, &rosterExporterMock{})
	c, w := newTestContext(http.MethodGet, "/scholarships?type=academic&page_size=5", nil, models.RoleStudent)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "academic", svc.lastQuery.Type)
	assert.Equal(t, 5, svc.lastQuery.PageSize)
}

func TestScholarshipHandlerCreateForbidden(t *testing.T) {
	handler := NewScholarshipHandler(&scholarshipServiceMock{err: appErrors.ErrForbidden}, &rosterExporterMock{})
	c, w := newTestContext(http.MethodPost, "/scholarships", dto.UpsertScholarshipRequest{Name: "Dean's List"}, models.RoleVerifier)

	handler.Create(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestScholarshipHandlerSlots(t *testing.T) {
	usage := &models.SlotUsage{ScholarshipID: "sch-1", Slots: 3, Approved: 1, Available: 2}
	handler := NewScholarshipHandler(&scholarshipServiceMock{usage: usage}, &rosterExporterMock{})
	c, w := newTestContext(http.MethodGet, "/scholarships/sch-1/slots", nil, models.RoleAdmin, idParam("sch-1"))

	handler.Slots(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":2`)
}

func TestScholarshipHandlerAwardeesDefaultsToCSV(t *testing.T) {
	exporter := &rosterExporterMock{}
	handler := NewScholarshipHandler(&scholarshipServiceMock{}, exporter)
	c, w := newTestContext(http.MethodGet, "/scholarships/sch-1/awardees", nil, models.RoleAdmin, idParam("sch-1"))

	handler.Awardees(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExportFormatCSV, exporter.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="awardees_merit_20240510.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", w.Header().Get("X-Total-Rows"))
	assert.Contains(t, w.Body.String(), "student-1")
}

func TestScholarshipHandlerAwardeesUnsupportedFormat(t *testing.T) {
	exporter := &rosterExporterMock{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	handler := NewScholarshipHandler(&scholarshipServiceMock{}, exporter)
	c, w := newTestContext(http.MethodGet, "/scholarships/sch-1/awardees?format=xlsx", nil, models.RoleAdmin, idParam("sch-1"))

	handler.Awardees(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ExportFormat("xlsx"), exporter.format)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}
