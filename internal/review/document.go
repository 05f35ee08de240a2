// Package review holds the document review queue: the document model, the
// status state machine, the decision dispatcher and per-user queue state.
package review

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status is the review state of a document.
type Status string

const (
	StatusPending           Status = "pending"
	StatusProcessing        Status = "processing"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusLowConfidence     Status = "low_confidence"
	StatusRequiresAttention Status = "requires_attention"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusPending, StatusProcessing, StatusLowConfidence,
	StatusRequiresAttention, StatusApproved, StatusRejected,
}

// ParseStatus validates s.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, slices.Contains(Statuses, st)
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Priority orders documents needing the same attention.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityRank maps priorities to their sort rank; higher ranks sort first.
var PriorityRank = map[string]int{
	string(PriorityHigh):   3,
	string(PriorityMedium): 2,
	string(PriorityLow):    1,
}

// DocumentType is the uploaded file format.
type DocumentType string

const (
	TypePDF  DocumentType = "PDF"
	TypeDOCX DocumentType = "DOCX"
	TypePPTX DocumentType = "PPTX"
)

// UploadSource tells how a document entered the system.
type UploadSource string

const (
	SourceManual      UploadSource = "manual"
	SourceIntegration UploadSource = "integration"
)

// Document is a court document produced by the redaction pipeline.
// Only Status (and Version with it) changes after ingestion.
type Document struct {
	ID                 string       `json:"id" yaml:"id"`
	Name               string       `json:"name" yaml:"name"`
	CaseNumber         string       `json:"case_number" yaml:"case_number"`
	UploadDate         time.Time    `json:"upload_date" yaml:"upload_date"`
	Language           string       `json:"language" yaml:"language"`
	DocumentType       DocumentType `json:"document_type" yaml:"document_type"`
	Status             Status       `json:"status" yaml:"status"`
	AIScore            int          `json:"ai_score" yaml:"ai_score"`
	AIConfidence       int          `json:"ai_confidence" yaml:"ai_confidence"`
	RedactedAreas      int          `json:"redacted_areas" yaml:"redacted_areas"`
	SensitiveDataFound []string     `json:"sensitive_data_found" yaml:"sensitive_data_found"`
	Priority           Priority     `json:"priority" yaml:"priority"`
	UploadSource       UploadSource `json:"upload_source" yaml:"upload_source"`
	Pages              int          `json:"pages" yaml:"pages"`
	Size               string       `json:"size" yaml:"size"`
	Version            int64        `json:"version" yaml:"-"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	d.SensitiveDataFound = slices.Clone(d.SensitiveDataFound)
	return d
}

// Open reports whether the document still awaits a final decision.
func (d Document) Open() bool { return !d.Status.Terminal() }

// Normalize fills defaults of an ingested document and rejects values outside
// their domain with ErrInvalidDocument. Score and confidence are independent.
func Normalize(d Document) (Document, error) {
	d.ID = strings.TrimSpace(d.ID)
	if d.ID == "" {
		return Document{}, fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	if _, ok := ParseStatus(string(d.Status)); !ok {
		return Document{}, fmt.Errorf("%w: unknown status %q", ErrInvalidDocument, d.Status)
	}
	if _, ok := PriorityRank[string(d.Priority)]; !ok {
		return Document{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidDocument, d.Priority)
	}
	if d.AIConfidence < 0 || d.AIConfidence > 100 {
		return Document{}, fmt.Errorf("%w: ai_confidence %d outside 0-100", ErrInvalidDocument, d.AIConfidence)
	}
	if d.AIScore < 0 || d.AIScore > 100 {
		return Document{}, fmt.Errorf("%w: ai_score %d outside 0-100", ErrInvalidDocument, d.AIScore)
	}
	if d.RedactedAreas < 0 || d.Pages < 0 {
		return Document{}, fmt.Errorf("%w: negative counts", ErrInvalidDocument)
	}
	if d.SensitiveDataFound == nil {
		d.SensitiveDataFound = []string{}
	}
	return d, nil
}
