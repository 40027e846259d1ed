package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
	"github.com/noah-isme/scholarship-api/pkg/response"
)

type renewalService interface {
	CheckRenewalEligibility(ctx context.Context, actor models.Actor, applicationID string, target dto.RenewalTarget) (*models.RenewalEligibility, error)
	GetUpcomingRenewalDeadlines(ctx context.Context, actor models.Actor, applicationID string) ([]models.RenewalDeadline, error)
	CreateRenewalApplication(ctx context.Context, actor models.Actor, applicationID string, req dto.CreateRenewalRequest) (*models.RenewalApplication, error)
	ListRenewals(ctx context.Context, actor models.Actor, applicationID string) ([]models.RenewalApplication, error)
	GetRenewal(ctx context.Context, actor models.Actor, id string) (*models.RenewalApplication, error)
	BeginRenewalReview(ctx context.Context, actor models.Actor, id string) (*models.RenewalApplication, error)
	ApproveRenewal(ctx context.Context, actor models.Actor, id string, req dto.RenewalDecisionRequest) (*models.RenewalApplication, error)
	RejectRenewal(ctx context.Context, actor models.Actor, id string, req dto.RenewalDecisionRequest) (*models.RenewalApplication, error)
	UploadRenewalDocument(ctx context.Context, actor models.Actor, id string, req dto.UploadDocumentRequest) (*models.RenewalApplication, error)
}

// RenewalHandler exposes renewal endpoints.
type RenewalHandler struct {
	service renewalService
}

// NewRenewalHandler builds a new handler.
func NewRenewalHandler(service renewalService) *RenewalHandler {
	return &RenewalHandler{service: service}
}

// Eligibility godoc
// @Summary Check renewal eligibility
// @Description Lists every unmet precondition in reasons.
// @Tags Renewals
// @Produce json
// @Param id path string true "Application ID"
// @Param semester query string true "first, second or summer"
// @Param year query int true "Academic year start"
// @Param gwa query number true "Current GWA"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/renewals/eligibility [get]
func (h *RenewalHandler) Eligibility(c *gin.Context) {
	var target dto.RenewalTarget
	if err := c.ShouldBindQuery(&target); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	result, err := h.service.CheckRenewalEligibility(c.Request.Context(), actorFromContext(c), c.Param("id"), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Deadlines godoc
// @Summary Upcoming renewal windows
// @Tags Renewals
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/renewals/deadlines [get]
func (h *RenewalHandler) Deadlines(c *gin.Context) {
	deadlines, err := h.service.GetUpcomingRenewalDeadlines(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deadlines, nil)
}

// Create godoc
// @Summary Request a renewal
// @Tags Renewals
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CreateRenewalRequest true "Target term and GWA"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope "INELIGIBLE_RENEWAL with reasons"
// @Router /applications/{id}/renewals [post]
func (h *RenewalHandler) Create(c *gin.Context) {
	var req dto.CreateRenewalRequest
	if !bindJSON(c, &req, false) {
		return
	}
	renewal, err := h.service.CreateRenewalApplication(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, renewal)
}

// List godoc
// @Summary List renewals of an award
// @Tags Renewals
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/renewals [get]
func (h *RenewalHandler) List(c *gin.Context) {
	renewals, err := h.service.ListRenewals(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, renewals, nil)
}

// Get godoc
// @Summary Get renewal
// @Tags Renewals
// @Produce json
// @Param id path string true "Renewal ID"
// @Success 200 {object} response.Envelope
// @Router /renewals/{id} [get]
func (h *RenewalHandler) Get(c *gin.Context) {
	h.respond(c)(h.service.GetRenewal(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// BeginReview godoc
// @Summary Start reviewing a renewal
// @Tags Renewals
// @Produce json
// @Param id path string true "Renewal ID"
// @Success 200 {object} response.Envelope
// @Router /renewals/{id}/review [post]
func (h *RenewalHandler) BeginReview(c *gin.Context) {
	h.respond(c)(h.service.BeginRenewalReview(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// Approve godoc
// @Summary Approve a renewal
// @Tags Renewals
// @Accept json
// @Produce json
// @Param id path string true "Renewal ID"
// @Param payload body dto.RenewalDecisionRequest false "Remarks"
// @Success 200 {object} response.Envelope
// @Router /renewals/{id}/approve [post]
func (h *RenewalHandler) Approve(c *gin.Context) {
	var req dto.RenewalDecisionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respond(c)(h.service.ApproveRenewal(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Reject godoc
// @Summary Reject a renewal
// @Tags Renewals
// @Accept json
// @Produce json
// @Param id path string true "Renewal ID"
// @Param payload body dto.RenewalDecisionRequest true "Remarks"
// @Success 200 {object} response.Envelope
// @Router /renewals/{id}/reject [post]
func (h *RenewalHandler) Reject(c *gin.Context) {
	var req dto.RenewalDecisionRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.RejectRenewal(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// UploadDocument godoc
// @Summary Attach a renewal document
// @Tags Renewals
// @Accept json
// @Produce json
// @Param id path string true "Renewal ID"
// @Param payload body dto.UploadDocumentRequest true "Document metadata"
// @Success 200 {object} response.Envelope
// @Router /renewals/{id}/documents [post]
func (h *RenewalHandler) UploadDocument(c *gin.Context) {
	var req dto.UploadDocumentRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.UploadRenewalDocument(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

func (h *RenewalHandler) respond(c *gin.Context) func(*models.RenewalApplication, error) {
	return func(renewal *models.RenewalApplication, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, renewal, nil)
	}
}
