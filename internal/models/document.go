package models

import "time"

// DocumentVerificationStatus tracks staff review of one uploaded document.
type DocumentVerificationStatus string

const (
	DocumentPending  DocumentVerificationStatus = "pending"
	DocumentVerified DocumentVerificationStatus = "verified"
	DocumentRejected DocumentVerificationStatus = "rejected"
)

// UploadedFile is the metadata handed over by the storage collaborator after an upload.
type UploadedFile struct {
	Path         string `json:"path" validate:"required"`
	OriginalName string `json:"original_name" validate:"required"`
	Size         int64  `json:"size" validate:"gte=0"`
	MimeType     string `json:"mime_type" validate:"required"`
}

// Document is one uploaded_documents entry.
type Document struct {
	Type               string                     `json:"type"`
	Path               string                     `json:"path"`
	OriginalName       string                     `json:"original_name,omitempty"`
	Size               int64                      `json:"size,omitempty"`
	MimeType           string                     `json:"mime_type,omitempty"`
	UploadedAt         time.Time                  `json:"uploaded_at"`
	VerificationStatus DocumentVerificationStatus `json:"verification_status"`
	Comment            *string                    `json:"comment,omitempty"`
}

// DocumentSet maps document type code to its entry.
type DocumentSet map[string]Document

// Clone copies the set.
func (d DocumentSet) Clone() DocumentSet {
	if d == nil {
		return nil
	}
	out := make(DocumentSet, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
