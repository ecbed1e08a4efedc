package services

import (
	"context"
	"fmt"
	"strings"

	"finserv-doc-pipeline/internal/config"
	"finserv-doc-pipeline/internal/logger"
	"finserv-doc-pipeline/models"
	"finserv-doc-pipeline/utils"
)

// Ingestor is the top-level state machine tying identity, store, text
// acquisition, file location and summarization together for each entry
// operation. All durable state lives in the document store; the ingestor
// itself holds no cross-request mutable state.
type Ingestor struct {
	cfg        *config.Config
	store      DocumentStore
	ocr        OCREngine
	summarizer Summarizer
	resolver   *Resolver
	locator    *Locator
}

func NewIngestor(cfg *config.Config, store DocumentStore, ocr OCREngine, summarizer Summarizer) *Ingestor {
	return &Ingestor{
		cfg:        cfg,
		store:      store,
		ocr:        ocr,
		summarizer: summarizer,
		resolver:   NewResolver(store, ocr),
		locator:    NewLocator(cfg),
	}
}

// UploadPDF ingests uploaded bytes: dedup by content hash, extract, resolve
// text with OCR fallback, summarize and persist. Uploading content that
// already has a summary is a no-op reported as already_exists.
func (ing *Ingestor) UploadPDF(ctx context.Context, filename string, content []byte) (*models.UploadResult, error) {
	docID := utils.DocumentID(content)

	exists, record, err := ing.store.Exists(ctx, docID)
	if err != nil {
		return nil, err
	}

	if exists {
		return ing.processDuplicate(ctx, docID, filename, content, record), nil
	}

	temp, err := utils.SaveTempFile(ing.cfg.TempDir, utils.ContentHash(docID)+"_"+filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer temp.Release()

	if err := ing.store.ExtractAndIndex(ctx, docID, temp.Path); err != nil {
		return nil, err
	}
	logger.Info("Uploaded PDF to store for extraction", "doc_id", docID, "filename", filename)

	res, err := ing.resolver.Resolve(ctx, docID, temp.Path)
	if err != nil {
		return nil, err
	}
	if res.Text == "" {
		return nil, fmt.Errorf("%w: no text could be extracted from the PDF using either the store or OCR", ErrInvalidInput)
	}

	summary, ok := ing.summarizer.Summarize(ctx, res.Text, "")
	if !ok {
		return nil, fmt.Errorf("%w: failed to generate summary", ErrSummarization)
	}

	if err := ing.store.UpdateField(ctx, docID, FieldSummary, summary); err != nil {
		return nil, err
	}

	return &models.UploadResult{
		Status:     models.StatusSuccess,
		DocumentID: docID,
		Filename:   filename,
		Summary:    summary,
		Message:    "PDF uploaded and processed successfully",
	}, nil
}

// processDuplicate handles an upload whose content hash is already indexed.
// Terminal outcomes are reported in the result, never returned as errors.
func (ing *Ingestor) processDuplicate(ctx context.Context, docID, filename string, content []byte, record *models.DocumentRecord) *models.UploadResult {
	originalFilename := record.SourceFilename
	if originalFilename == "" {
		originalFilename = filename
	}

	result := &models.UploadResult{
		DocumentID:       docID,
		CurrentFilename:  filename,
		OriginalFilename: originalFilename,
	}

	if record.HasSummary() {
		result.Status = models.StatusAlreadyExists
		result.Summary = record.Summary
		result.Message = fmt.Sprintf("Document already exists in the system (duplicate of '%s')", originalFilename)
		return result
	}

	// Record exists but was never summarized. Re-resolve text, preferring the
	// stored source file and falling back to a temp copy of this upload.
	path, found := ing.locator.SourcePath(record)
	if !found {
		temp, err := utils.SaveTempFile(ing.cfg.TempDir, "ocr_"+utils.ContentHash(docID)+"_"+filename, content)
		if err != nil {
			result.Status = models.StatusError
			result.Message = fmt.Sprintf("Document already exists (duplicate of '%s') but error occurred while generating summary: %v", originalFilename, err)
			return result
		}
		defer temp.Release()
		path = temp.Path
	}

	res, err := ing.resolver.Resolve(ctx, docID, path)
	if err != nil {
		result.Status = models.StatusError
		result.Message = fmt.Sprintf("Document already exists (duplicate of '%s') but error occurred while generating summary: %v", originalFilename, err)
		return result
	}

	if res.Text == "" {
		result.Status = models.StatusNoContent
		result.Message = fmt.Sprintf("Document already exists (duplicate of '%s') but no text content found", originalFilename)
		return result
	}

	summary, ok := ing.summarizer.Summarize(ctx, res.Text, "")
	if !ok {
		result.Status = models.StatusSummaryFailed
		result.Message = fmt.Sprintf("Document already exists (duplicate of '%s') but summary generation failed", originalFilename)
		return result
	}

	if err := ing.store.UpdateField(ctx, docID, FieldSummary, summary); err != nil {
		result.Status = models.StatusError
		result.Message = fmt.Sprintf("Document already exists (duplicate of '%s') but error occurred while generating summary: %v", originalFilename, err)
		return result
	}

	result.Status = models.StatusSummaryGenerated
	result.Summary = summary
	result.Message = fmt.Sprintf("Document already exists (duplicate of '%s') - summary generated successfully", originalFilename)
	return result
}

// UpdateSummary re-resolves text for an indexed document (locating the
// original file for OCR if the store has none) and regenerates its summary,
// optionally steered by a custom question.
func (ing *Ingestor) UpdateSummary(ctx context.Context, docID, question string) (*models.SummaryResult, error) {
	exists, record, err := ing.store.Exists(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: document with ID '%s' not found", ErrNotFound, docID)
	}

	originalFilename := record.SourceFilename
	if originalFilename == "" {
		originalFilename = "unknown"
	}

	path, _ := ing.locator.Locate(record, docID, originalFilename)

	res, err := ing.resolver.Resolve(ctx, docID, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Text) == "" {
		if path == "" {
			return nil, fmt.Errorf("%w: no text content found for document ID '%s' and original PDF file not available for OCR", ErrInvalidInput, docID)
		}
		return nil, fmt.Errorf("%w: no text content could be extracted from document ID '%s'", ErrInvalidInput, docID)
	}

	summary, ok := ing.summarizer.Summarize(ctx, res.Text, question)
	if !ok {
		return nil, fmt.Errorf("%w: failed to generate summary", ErrSummarization)
	}

	if err := ing.store.UpdateField(ctx, docID, FieldSummary, summary); err != nil {
		return nil, err
	}

	return &models.SummaryResult{
		Status:     models.StatusSummaryUpdated,
		DocumentID: docID,
		Filename:   originalFilename,
		Summary:    summary,
		Message:    fmt.Sprintf("Summary updated successfully for document '%s'", originalFilename),
	}, nil
}

// UpdateSummaryWithFile regenerates a document's summary from a supplied
// file, running OCR directly and bypassing the store's extraction. Useful
// when the original upload is no longer on disk.
func (ing *Ingestor) UpdateSummaryWithFile(ctx context.Context, docID, filename string, content []byte) (*models.SummaryResult, error) {
	exists, record, err := ing.store.Exists(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: document with ID '%s' not found", ErrNotFound, docID)
	}

	originalFilename := record.SourceFilename
	if originalFilename == "" {
		originalFilename = "unknown"
	}

	temp, err := utils.SaveTempFile(ing.cfg.TempDir, "ocr_"+docID+"_"+filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer temp.Release()

	text, err := ing.ocr.ExtractText(ctx, temp.Path)
	if err != nil {
		logger.Warn("OCR extraction failed for supplied file", "doc_id", docID, "error", err)
		text = ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: no text could be extracted from the PDF using OCR", ErrInvalidInput)
	}

	if err := ing.store.UpdateField(ctx, docID, FieldContent, text); err != nil {
		return nil, err
	}
	logger.Info("Updated store with OCR text from supplied file", "doc_id", docID)

	summary, ok := ing.summarizer.Summarize(ctx, text, "")
	if !ok {
		return nil, fmt.Errorf("%w: failed to generate summary", ErrSummarization)
	}

	if err := ing.store.UpdateField(ctx, docID, FieldSummary, summary); err != nil {
		return nil, err
	}

	return &models.SummaryResult{
		Status:           models.StatusSummaryUpdatedWithOCR,
		DocumentID:       docID,
		OriginalFilename: originalFilename,
		UploadedFilename: filename,
		Summary:          summary,
		Message:          fmt.Sprintf("Summary updated successfully for document '%s' using OCR from '%s'", originalFilename, filename),
	}, nil
}

// GetDocument is the plain read behind fetch-info.
func (ing *Ingestor) GetDocument(ctx context.Context, docID string) (*models.DocumentInfo, error) {
	exists, record, err := ing.store.Exists(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: document with ID '%s' not found", ErrNotFound, docID)
	}

	filename := record.SourceFilename
	if filename == "" {
		filename = "unknown"
	}

	return &models.DocumentInfo{
		Status:     models.StatusFound,
		DocumentID: docID,
		Filename:   filename,
		Summary:    record.Summary,
		HasSummary: record.HasSummary(),
		Message:    fmt.Sprintf("Document '%s' found", filename),
	}, nil
}
