package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/service"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
	"github.com/noah-isme/scholarship-api/pkg/response"
)

type scholarshipService interface {
	Create(ctx context.Context, actor models.Actor, req dto.UpsertScholarshipRequest) (*models.Scholarship, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpsertScholarshipRequest) (*models.Scholarship, error)
	Get(ctx context.Context, id string) (*models.Scholarship, error)
	List(ctx context.Context, query dto.ScholarshipQuery) ([]models.Scholarship, *models.Pagination, error)
	SlotUsage(ctx context.Context, actor models.Actor, id string) (*models.SlotUsage, error)
}

type rosterExporter interface {
	AwardeeRoster(ctx context.Context, actor models.Actor, scholarshipID string, format models.ExportFormat) (*service.ExportResult, error)
}

// ScholarshipHandler exposes scholarship program endpoints.
type ScholarshipHandler struct {
	service scholarshipService
	export  rosterExporter
}

// NewScholarshipHandler builds a new handler.
func NewScholarshipHandler(service scholarshipService, export rosterExporter) *ScholarshipHandler {
	return &ScholarshipHandler{service: service, export: export}
}

// List godoc
// @Summary List scholarships
// @Tags Scholarships
// @Produce json
// @Param type query string false "Scholarship type"
// @Param status query string false "active or inactive"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scholarships [get]
func (h *ScholarshipHandler) List(c *gin.Context) {
	var query dto.ScholarshipQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get scholarship
// @Tags Scholarships
// @Produce json
// @Param id path string true "Scholarship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scholarships/{id} [get]
func (h *ScholarshipHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create scholarship
// @Tags Scholarships
// @Accept json
// @Produce json
// @Param payload body dto.UpsertScholarshipRequest true "Scholarship payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scholarships [post]
func (h *ScholarshipHandler) Create(c *gin.Context) {
	var req dto.UpsertScholarshipRequest
	if !bindJSON(c, &req, false) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update scholarship
// @Tags Scholarships
// @Accept json
// @Produce json
// @Param id path string true "Scholarship ID"
// @Param payload body dto.UpsertScholarshipRequest true "Scholarship payload"
// @Success 200 {object} response.Envelope
// @Router /scholarships/{id} [put]
func (h *ScholarshipHandler) Update(c *gin.Context) {
	var req dto.UpsertScholarshipRequest
	if !bindJSON(c, &req, false) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Slots godoc
// @Summary Slot usage
// @Description Live capacity read straight from the database.
// @Tags Scholarships
// @Produce json
// @Param id path string true "Scholarship ID"
// @Success 200 {object} response.Envelope
// @Router /scholarships/{id}/slots [get]
func (h *ScholarshipHandler) Slots(c *gin.Context) {
	usage, err := h.service.SlotUsage(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, usage, nil)
}

// Awardees godoc
// @Summary Export awardee roster
// @Tags Scholarships
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Scholarship ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /scholarships/{id}/awardees [get]
func (h *ScholarshipHandler) Awardees(c *gin.Context) {
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))
	result, err := h.export.AwardeeRoster(c.Request.Context(), actorFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("X-Total-Rows", fmt.Sprintf("%d", result.Rows))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
