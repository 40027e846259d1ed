package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/pkg/response"
)

type interviewService interface {
	Schedule(ctx context.Context, actor models.Actor, applicationID string, req dto.ScheduleInterviewRequest) (*models.Interview, error)
	RequestReschedule(ctx context.Context, actor models.Actor, applicationID string, req dto.InterviewOutcomeRequest) (*models.Interview, error)
	Complete(ctx context.Context, actor models.Actor, applicationID string, req dto.InterviewOutcomeRequest) (*models.Interview, error)
	Cancel(ctx context.Context, actor models.Actor, applicationID string, req dto.InterviewOutcomeRequest) (*models.Interview, error)
	Get(ctx context.Context, actor models.Actor, applicationID string) (*models.Interview, error)
}

// InterviewHandler exposes the interview bound to an application.
type InterviewHandler struct {
	service interviewService
}

// NewInterviewHandler builds a new handler.
func NewInterviewHandler(service interviewService) *InterviewHandler {
	return &InterviewHandler{service: service}
}

// Get godoc
// @Summary Get the application's interview
// @Tags Interviews
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/interview [get]
func (h *InterviewHandler) Get(c *gin.Context) {
	h.respond(c)(h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id")))
}

// Schedule godoc
// @Summary Schedule or move the interview
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ScheduleInterviewRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/interview [post]
func (h *InterviewHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleInterviewRequest
	if !bindJSON(c, &req, false) {
		return
	}
	h.respond(c)(h.service.Schedule(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// RequestReschedule godoc
// @Summary Ask for another interview slot
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.InterviewOutcomeRequest false "Notes"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/interview/reschedule [post]
func (h *InterviewHandler) RequestReschedule(c *gin.Context) {
	var req dto.InterviewOutcomeRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respond(c)(h.service.RequestReschedule(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Complete godoc
// @Summary Record that the interview took place
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.InterviewOutcomeRequest false "Remarks"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/interview/complete [post]
func (h *InterviewHandler) Complete(c *gin.Context) {
	var req dto.InterviewOutcomeRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respond(c)(h.service.Complete(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

// Cancel godoc
// @Summary Cancel the interview
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.InterviewOutcomeRequest false "Remarks"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/interview/cancel [post]
func (h *InterviewHandler) Cancel(c *gin.Context) {
	var req dto.InterviewOutcomeRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respond(c)(h.service.Cancel(c.Request.Context(), actorFromContext(c), c.Param("id"), req))
}

func (h *InterviewHandler) respond(c *gin.Context) func(*models.Interview, error) {
	return func(interview *models.Interview, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, interview, nil)
	}
}
