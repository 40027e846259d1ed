package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
	"github.com/noah-isme/scholarship-api/pkg/response"
)

type applicationService interface {
	CreateDraft(ctx context.Context, actor models.Actor, req dto.CreateApplicationRequest) (*models.ScholarshipApplication, error)
	Get(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error)
	List(ctx context.Context, actor models.Actor, query dto.ApplicationQuery) ([]models.ScholarshipApplication, *models.Pagination, error)
	PreviewEligibility(ctx context.Context, actor models.Actor, req dto.PreviewEligibilityRequest) (*models.EligibilityResult, error)
	UpdateDocument(ctx context.Context, actor models.Actor, id string, req dto.UploadDocumentRequest) (*models.ScholarshipApplication, error)
	Submit(ctx context.Context, actor models.Actor, id string, req dto.SubmitApplicationRequest) (*models.ScholarshipApplication, error)
	Resubmit(ctx context.Context, actor models.Actor, id string) (*models.ScholarshipApplication, error)
	BeginVerification(ctx context.Context, actor models.Actor, id string) (*models.ScholarshipApplication, error)
	VerifyDocument(ctx context.Context, actor models.Actor, id, docType string, req dto.VerifyDocumentRequest) (*models.ScholarshipApplication, error)
	MarkVerified(ctx context.Context, actor models.Actor, id string, req dto.CommentRequest) (*models.ScholarshipApplication, error)
	MarkIncomplete(ctx context.Context, actor models.Actor, id string, req dto.CommentRequest) (*models.ScholarshipApplication, error)
	Evaluate(ctx context.Context, actor models.Actor, id string, req dto.EvaluateRequest) (*models.ScholarshipApplication, error)
	Approve(ctx context.Context, actor models.Actor, id string, req dto.ApproveRequest) (*models.ScholarshipApplication, error)
	Reject(ctx context.Context, actor models.Actor, id string, req dto.ReasonRequest) (*models.ScholarshipApplication, error)
	Revoke(ctx context.Context, actor models.Actor, id string, req dto.ReasonRequest) (*models.ScholarshipApplication, error)
	EndAward(ctx context.Context, actor models.Actor, id string, req dto.EndAwardRequest) (*models.ScholarshipApplication, error)
	RecordStipend(ctx context.Context, actor models.Actor, id string, req dto.RecordStipendRequest) (*models.ScholarshipApplication, error)
	StipendHistory(ctx context.Context, actor models.Actor, id string) ([]models.StipendDisbursement, error)
}

// ApplicationHandler exposes the application lifecycle.
type ApplicationHandler struct {
	service applicationService
}

// NewApplicationHandler builds a new handler.
func NewApplicationHandler(service applicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Create godoc
// @Summary Open a draft application
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.CreateApplicationRequest true "Draft payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req dto.CreateApplicationRequest
	if !bindJSON(c, &req, false) {
		return
	}
	app, err := h.service.CreateDraft(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Get godoc
// @Summary Get application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// List godoc
// @Summary List applications
// @Description Students only see their own applications.
// @Tags Applications
// @Produce json
// @Param scholarship_id query string false "Scholarship ID"
// @Param student_id query string false "Student ID (staff only)"
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	var query dto.ApplicationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	apps, pagination, err := h.service.List(c.Request.Context(), actorFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination, middleware.ExtractMeta(c))
}

// PreviewEligibility godoc
// @Summary Preview eligibility
// @Description Runs the eligibility rules without creating anything.
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.PreviewEligibilityRequest true "Preview payload"
// @Success 200 {object} response.Envelope
// @Router /eligibility/preview [post]
func (h *ApplicationHandler) PreviewEligibility(c *gin.Context) {
	var req dto.PreviewEligibilityRequest
	if !bindJSON(c, &req, false) {
		return
	}
	result, err := h.service.PreviewEligibility(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UploadDocument godoc
// @Summary Attach or replace a document
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.UploadDocumentRequest true "Document metadata"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents [post]
func (h *ApplicationHandler) UploadDocument(c *gin.Context) {
	var req dto.UploadDocumentRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.UpdateDocument(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Submit godoc
// @Summary Submit a draft
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.SubmitApplicationRequest true "Profile, answers and documents"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "Eligibility issues in error.details"
// @Router /applications/{id}/submit [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req dto.SubmitApplicationRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.Submit(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Resubmit godoc
// @Summary Resubmit an incomplete application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/resubmit [post]
func (h *ApplicationHandler) Resubmit(c *gin.Context) {
	h.respond(c)(h.service.Resubmit(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// BeginVerification godoc
// @Summary Start document verification
// @Tags Verification
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/verification/begin [post]
func (h *ApplicationHandler) BeginVerification(c *gin.Context) {
	h.respond(c)(h.service.BeginVerification(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// VerifyDocument godoc
// @Summary Verify or reject one document
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param type path string true "Document type"
// @Param payload body dto.VerifyDocumentRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/documents/{type}/verify [post]
func (h *ApplicationHandler) VerifyDocument(c *gin.Context) {
	var req dto.VerifyDocumentRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.VerifyDocument(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("type"), req))
}

// MarkVerified godoc
// @Summary Complete verification
// @Description Falls back to incomplete when a required document is not verified.
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CommentRequest false "Verifier comments"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/verify [post]
func (h *ApplicationHandler) MarkVerified(c *gin.Context) {
	var req dto.CommentRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respond(c)(h.service.MarkVerified(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// MarkIncomplete godoc
// @Summary Return an application to the student
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CommentRequest true "What is missing"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/incomplete [post]
func (h *ApplicationHandler) MarkIncomplete(c *gin.Context) {
	var req dto.CommentRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.MarkIncomplete(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Evaluate godoc
// @Summary Send to committee evaluation
// @Tags Decisions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.EvaluateRequest false "Committee recommendation"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/evaluate [post]
func (h *ApplicationHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respond(c)(h.service.Evaluate(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Approve godoc
// @Summary Approve an application
// @Description Consumes one scholarship slot; 409 CAPACITY_EXCEEDED when none remain.
// @Tags Decisions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ApproveRequest false "Admin remarks"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/approve [post]
func (h *ApplicationHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respond(c)(h.service.Approve(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Reject godoc
// @Summary Reject an application
// @Tags Decisions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ReasonRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	var req dto.ReasonRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.Reject(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Revoke godoc
// @Summary Revoke an approved award
// @Description Releases the scholarship slot.
// @Tags Decisions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ReasonRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/revoke [post]
func (h *ApplicationHandler) Revoke(c *gin.Context) {
	var req dto.ReasonRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.Revoke(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// EndAward godoc
// @Summary Close an award
// @Tags Decisions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.EndAwardRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/end [post]
func (h *ApplicationHandler) EndAward(c *gin.Context) {
	var req dto.EndAwardRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.EndAward(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// RecordStipend godoc
// @Summary Record a stipend disbursement
// @Tags Stipends
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.RecordStipendRequest true "Disbursement"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/stipends [post]
func (h *ApplicationHandler) RecordStipend(c *gin.Context) {
	var req dto.RecordStipendRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.RecordStipend(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// StipendHistory godoc
// @Summary List stipend disbursements
// @Tags Stipends
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/stipends [get]
func (h *ApplicationHandler) StipendHistory(c *gin.Context) {
	entries, err := h.service.StipendHistory(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func (h *ApplicationHandler) respond(c *gin.Context) func(*models.ScholarshipApplication, error) {
	return func(app *models.ScholarshipApplication, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, app, nil)
	}
}
