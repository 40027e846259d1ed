package service

import (
	"context"

	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

const applicationAuditResource = "scholarship_application"

type auditTrailReader interface {
	ListByResource(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error)
}

// AuditTrailService exposes the recorded history of an application to staff.
type AuditTrailService struct {
	logs auditTrailReader
	apps applicationReader
}

// NewAuditTrailService constructs the service.
func NewAuditTrailService(logs auditTrailReader, apps applicationReader) *AuditTrailService {
	return &AuditTrailService{logs: logs, apps: apps}
}

// ApplicationHistory lists the audit entries of one application, newest first.
func (s *AuditTrailService) ApplicationHistory(ctx context.Context, actor models.Actor, applicationID string) ([]models.AuditLog, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can read the audit trail")
	}
	if _, err := s.apps.GetByID(ctx, applicationID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	logs, err := s.logs.ListByResource(ctx, applicationAuditResource, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}
