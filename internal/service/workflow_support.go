package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NotificationEmitter hands workflow events to the delivery collaborator.
type NotificationEmitter interface {
	Emit(ctx context.Context, event models.NotificationEvent)
}

// Clock supplies the current time; tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// stampOnce sets a lifecycle timestamp the first time it is reached.
func stampOnce(field **time.Time, now time.Time) {
	if *field != nil {
		return
	}
	t := now
	*field = &t
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]models.Issue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, models.Issue{
				Code:    models.IssueInvalidField,
				Field:   strings.ToLower(fe.Field()),
				Message: fe.Field() + " failed " + fe.Tag() + " validation",
			})
		}
		return appErrors.WithDetails(appErrors.ErrValidation, "invalid payload", issues)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}

// decodeData parses raw application_data into the typed variant for t and
// checks its shape.
func decodeData(validate *validator.Validate, t models.ScholarshipType, raw json.RawMessage) (models.ApplicationData, error) {
	data, err := models.DecodeApplicationData(t, raw)
	if err != nil {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "malformed application_data", []models.Issue{{
			Code:    models.IssueApplicationDataMissing,
			Field:   "application_data",
			Message: err.Error(),
		}})
	}
	if len(raw) > 0 && data != nil {
		if err := validate.Struct(data); err != nil {
			return nil, validationError(err)
		}
	}
	return data, nil
}

func recordAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, log *models.AuditLog) {
	if audit == nil || log == nil {
		return
	}
	if err := audit.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.String("resource", log.Resource), zap.Error(err))
	}
}

func auditValues(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func containsRole(roles []models.UserRole, role models.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
