package models

import "strings"

// Upload processing statuses reported to clients.
const (
	StatusSuccess               = "success"
	StatusAlreadyExists         = "already_exists"
	StatusSummaryGenerated      = "summary_generated"
	StatusSummaryFailed         = "summary_failed"
	StatusNoContent             = "no_content"
	StatusError                 = "error"
	StatusSummaryUpdated        = "summary_updated"
	StatusSummaryUpdatedWithOCR = "summary_updated_with_ocr"
	StatusFound                 = "found"
)

// DocumentRecord is the Solr-side representation of one ingested file.
// The ID is content-derived (sha256 of the raw bytes), so identical uploads
// map to the same record regardless of filename.
type DocumentRecord struct {
	ID               string `json:"id"`
	ExtractedContent string `json:"extracted_content,omitempty"`
	SourceFilename   string `json:"source_filename,omitempty"`
	SourceURI        string `json:"source_uri,omitempty"`
	Summary          string `json:"summary,omitempty"`
}

// HasSummary reports whether the record carries a non-blank summary.
func (d *DocumentRecord) HasSummary() bool {
	return d != nil && strings.TrimSpace(d.Summary) != ""
}

// UploadResult is the orchestrator's outcome for an upload operation.
type UploadResult struct {
	Status           string `json:"status"`
	DocumentID       string `json:"document_id"`
	Filename         string `json:"filename,omitempty"`
	CurrentFilename  string `json:"current_filename,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
	Summary          string `json:"summary"`
	Message          string `json:"message"`
}

// SummaryResult is the outcome of a re-summarization operation.
type SummaryResult struct {
	Status           string `json:"status"`
	DocumentID       string `json:"document_id"`
	Filename         string `json:"filename,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
	UploadedFilename string `json:"uploaded_filename,omitempty"`
	Summary          string `json:"summary"`
	Message          string `json:"message"`
}

// DocumentInfo is the read-only view returned by the fetch-info operation.
type DocumentInfo struct {
	Status     string `json:"status"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Summary    string `json:"summary"`
	HasSummary bool   `json:"has_summary"`
	Message    string `json:"message"`
}
