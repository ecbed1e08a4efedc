package services

import (
	"context"
	"strings"

	"finserv-doc-pipeline/internal/logger"
	"finserv-doc-pipeline/utils"
)

// Resolution is the outcome of text acquisition for one document.
type Resolution struct {
	Text    string
	UsedOCR bool
	// WriteBackErr records a failed OCR cache write. The resolved text is
	// still valid; the write-back is a best-effort cache warm.
	WriteBackErr error
}

// Resolver acquires document text: the indexing engine's extraction first,
// then OCR on a known file, persisting OCR output back into the store.
type Resolver struct {
	store DocumentStore
	ocr   OCREngine
}

func NewResolver(store DocumentStore, ocr OCREngine) *Resolver {
	return &Resolver{store: store, ocr: ocr}
}

// Resolve returns the best text available for docID. A missing record
// propagates as ErrNotFound; an empty result with nil error means neither
// the store nor OCR produced any text.
func (r *Resolver) Resolve(ctx context.Context, docID, knownFilePath string) (Resolution, error) {
	text, err := r.store.ReadExtractedText(ctx, docID)
	if err != nil {
		return Resolution{}, err
	}

	if strings.TrimSpace(text) != "" {
		return Resolution{Text: text}, nil
	}

	if knownFilePath == "" || !utils.FileExists(knownFilePath) {
		return Resolution{}, nil
	}

	logger.Info("No extracted text in store, attempting OCR", "doc_id", docID, "path", knownFilePath)

	ocrText, err := r.ocr.ExtractText(ctx, knownFilePath)
	if err != nil {
		logger.Warn("OCR extraction failed", "doc_id", docID, "error", err)
		return Resolution{UsedOCR: true}, nil
	}

	ocrText = strings.TrimSpace(ocrText)
	if ocrText == "" {
		return Resolution{UsedOCR: true}, nil
	}

	res := Resolution{Text: ocrText, UsedOCR: true}
	if err := r.store.UpdateField(ctx, docID, FieldContent, ocrText); err != nil {
		logger.Warn("Failed to write OCR text back to store, proceeding anyway", "doc_id", docID, "error", err)
		res.WriteBackErr = err
	} else {
		logger.Info("Cached OCR text in store", "doc_id", docID, "chars", len(ocrText))
	}

	return res, nil
}
