package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/pkg/response"
)

type auditTrailService interface {
	ApplicationHistory(ctx context.Context, actor models.Actor, applicationID string) ([]models.AuditLog, error)
}

// AuditHandler serves recorded workflow history.
type AuditHandler struct {
	service auditTrailService
}

// NewAuditHandler builds a new handler.
func NewAuditHandler(service auditTrailService) *AuditHandler {
	return &AuditHandler{service: service}
}

// ApplicationHistory godoc
// @Summary Application audit trail
// @Tags Audit
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /applications/{id}/audit [get]
func (h *AuditHandler) ApplicationHistory(c *gin.Context) {
	logs, err := h.service.ApplicationHistory(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
