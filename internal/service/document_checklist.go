package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// DocumentChecklist compares a scholarship's required document types with the
// documents uploaded for one application.
type DocumentChecklist struct {
	required  []string
	documents models.DocumentSet
}

// ChecklistItem reports the state of one required document type.
type ChecklistItem struct {
	Type     string                            `json:"type"`
	Uploaded bool                              `json:"uploaded"`
	Status   models.DocumentVerificationStatus `json:"status,omitempty"`
}

// NewDocumentChecklist builds a checklist. The required order is preserved.
func NewDocumentChecklist(required []string, documents models.DocumentSet) DocumentChecklist {
	return DocumentChecklist{required: append([]string(nil), required...), documents: documents}
}

// Items lists each required type with its current state.
func (c DocumentChecklist) Items() []ChecklistItem {
	items := make([]ChecklistItem, 0, len(c.required))
	for _, t := range c.required {
		doc, ok := c.documents[t]
		item := ChecklistItem{Type: t, Uploaded: ok}
		if ok {
			item.Status = doc.VerificationStatus
		}
		items = append(items, item)
	}
	return items
}

// Missing returns required types with no upload.
func (c DocumentChecklist) Missing() []string {
	return c.filter(func(doc models.Document, ok bool) bool { return !ok })
}

// Rejected returns uploaded required types that staff rejected.
func (c DocumentChecklist) Rejected() []string {
	return c.filter(func(doc models.Document, ok bool) bool {
		return ok && doc.VerificationStatus == models.DocumentRejected
	})
}

// Pending returns uploaded required types awaiting verification.
func (c DocumentChecklist) Pending() []string {
	return c.filter(func(doc models.Document, ok bool) bool {
		return ok && doc.VerificationStatus != models.DocumentVerified && doc.VerificationStatus != models.DocumentRejected
	})
}

// Complete reports whether every required type has an upload.
func (c DocumentChecklist) Complete() bool {
	return len(c.Missing()) == 0
}

// Correctable reports whether the set may go back to verification: every type
// is uploaded and none is still rejected.
func (c DocumentChecklist) Correctable() bool {
	return c.Complete() && len(c.Rejected()) == 0
}

// Resolved reports whether every required type is uploaded and verified.
func (c DocumentChecklist) Resolved() bool {
	return c.Complete() && len(c.Rejected()) == 0 && len(c.Pending()) == 0
}

// Issues describes every unresolved entry.
func (c DocumentChecklist) Issues() []models.Issue {
	issues := make([]models.Issue, 0)
	for _, t := range c.Missing() {
		issues = append(issues, models.Issue{Code: models.IssueMissingDocument, Field: t, Message: fmt.Sprintf("required document %s is missing", t)})
	}
	for _, t := range c.Rejected() {
		issues = append(issues, models.Issue{Code: models.IssueRejectedDocument, Field: t, Message: fmt.Sprintf("document %s was rejected", t)})
	}
	for _, t := range c.Pending() {
		issues = append(issues, models.Issue{Code: models.IssuePendingDocument, Field: t, Message: fmt.Sprintf("document %s has not been verified", t)})
	}
	return issues
}

// Summary renders the issues as a verifier comment.
func (c DocumentChecklist) Summary() string {
	issues := c.Issues()
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.Message)
	}
	return strings.Join(parts, "; ")
}

func (c DocumentChecklist) filter(match func(models.Document, bool) bool) []string {
	out := make([]string, 0)
	for _, t := range c.required {
		doc, ok := c.documents[t]
		if match(doc, ok) {
			out = append(out, t)
		}
	}
	return out
}

// ReplaceDocument returns a copy of docs with docType replaced by a fresh,
// pending entry.
func ReplaceDocument(docs models.DocumentSet, docType string, file models.UploadedFile, now time.Time) models.DocumentSet {
	next := docs.Clone()
	if next == nil {
		next = make(models.DocumentSet)
	}
	next[docType] = models.Document{
		Type:               docType,
		Path:               file.Path,
		OriginalName:       file.OriginalName,
		Size:               file.Size,
		MimeType:           file.MimeType,
		UploadedAt:         now,
		VerificationStatus: models.DocumentPending,
	}
	return next
}

// SetDocumentVerification returns a copy of docs with the verification result recorded.
func SetDocumentVerification(docs models.DocumentSet, docType string, status models.DocumentVerificationStatus, comment *string) (models.DocumentSet, error) {
	doc, ok := docs[docType]
	if !ok {
		return nil, fmt.Errorf("document %s has not been uploaded", docType)
	}
	next := docs.Clone()
	doc.VerificationStatus = status
	doc.Comment = comment
	next[docType] = doc
	return next, nil
}

// sortedDocumentTypes is used where deterministic output matters (exports, audit).
func sortedDocumentTypes(docs models.DocumentSet) []string {
	types := make([]string, 0, len(docs))
	for t := range docs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
