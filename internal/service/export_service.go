package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
	"github.com/noah-isme/scholarship-api/pkg/export"
)

const rosterPageSize = 200

var rosterHeaders = []string{"Application ID", "Student ID", "Approved At", "Amount Received", "Last Stipend", "Verified Documents"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered roster ready to be served.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders the awardee roster of a scholarship.
type ExportService struct {
	apps         applicationLister
	scholarships scholarshipReader
	csv          csvRenderer
	pdf          pdfRenderer
	clock        Clock
	logger       *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(apps applicationLister, scholarships scholarshipReader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		apps:         apps,
		scholarships: scholarships,
		csv:          csv,
		pdf:          pdf,
		clock:        systemClock,
		logger:       logger,
	}
}

// AwardeeRoster lists every approved application of a scholarship.
func (s *ExportService) AwardeeRoster(ctx context.Context, actor models.Actor, scholarshipID string, format models.ExportFormat) (*ExportResult, error) {
	if !actor.Role.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "awardee roster is visible to staff only")
	}
	if format == "" {
		format = models.ExportFormatCSV
	}
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	scholarship, err := s.scholarships.GetByID(ctx, scholarshipID)
	if err != nil {
		if isNoRows(err) || errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scholarship")
	}

	dataset, err := s.buildRoster(ctx, scholarshipID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Awardees %s", scholarship.Name))
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	s.logger.Info("awardee roster exported",
		zap.String("scholarship_id", scholarshipID),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)))

	return &ExportResult{
		Filename:    fmt.Sprintf("awardees_%s_%s.%s", sanitizeFilename(scholarship.Name), s.clock().Format("20060102"), format),
		ContentType: format.ContentType(),
		Data:        payload,
		Rows:        len(dataset.Rows),
	}, nil
}

func (s *ExportService) buildRoster(ctx context.Context, scholarshipID string) (export.Dataset, error) {
	dataset := export.Dataset{Headers: rosterHeaders}
	filter := models.ApplicationFilter{
		ScholarshipID: scholarshipID,
		Status:        []models.ApplicationStatus{models.ApplicationStatusApproved},
		PageSize:      rosterPageSize,
	}
	for page := 1; ; page++ {
		filter.Page = page
		apps, total, err := s.apps.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list awardees")
		}
		for i := range apps {
			dataset.Rows = append(dataset.Rows, rosterRow(&apps[i]))
		}
		if len(apps) == 0 || page*rosterPageSize >= total {
			break
		}
	}
	return dataset, nil
}

func rosterRow(app *models.ScholarshipApplication) map[string]string {
	var verified []string
	for _, docType := range sortedDocumentTypes(app.Documents) {
		if app.Documents[docType].VerificationStatus == models.DocumentVerified {
			verified = append(verified, docType)
		}
	}
	return map[string]string{
		"Application ID":     app.ID,
		"Student ID":         app.StudentID,
		"Approved At":        formatExportTime(app.ApprovedAt),
		"Amount Received":    fmt.Sprintf("%.2f", app.AmountReceived),
		"Last Stipend":       formatExportTime(app.LastStipendDate),
		"Verified Documents": strings.Join(verified, ";"),
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
