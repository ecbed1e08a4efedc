package services

import (
	"context"

	"finserv-doc-pipeline/models"
)

type fieldUpdate struct {
	docID string
	field string
	value string
}

// fakeStore is an in-memory DocumentStore for orchestration tests.
type fakeStore struct {
	record       *models.DocumentRecord
	text         string
	textErr      error
	existsErr    error
	updateErr    error
	extractErr   error
	extractCalls int
	updates      []fieldUpdate
}

func (f *fakeStore) Exists(ctx context.Context, docID string) (bool, *models.DocumentRecord, error) {
	if f.existsErr != nil {
		return false, nil, f.existsErr
	}
	if f.record == nil {
		return false, nil, nil
	}
	return true, f.record, nil
}

func (f *fakeStore) ExtractAndIndex(ctx context.Context, docID, filePath string) error {
	f.extractCalls++
	return f.extractErr
}

func (f *fakeStore) ReadExtractedText(ctx context.Context, docID string) (string, error) {
	return f.text, f.textErr
}

func (f *fakeStore) UpdateField(ctx context.Context, docID, field, value string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, fieldUpdate{docID: docID, field: field, value: value})
	return nil
}

func (f *fakeStore) summaryUpdates() []fieldUpdate {
	var out []fieldUpdate
	for _, u := range f.updates {
		if u.field == FieldSummary {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeStore) contentUpdates() []fieldUpdate {
	var out []fieldUpdate
	for _, u := range f.updates {
		if u.field == FieldContent {
			out = append(out, u)
		}
	}
	return out
}

// fakeOCR returns canned text and records the paths it was asked to process.
type fakeOCR struct {
	text  string
	err   error
	calls []string
}

func (f *fakeOCR) ExtractText(ctx context.Context, filePath string) (string, error) {
	f.calls = append(f.calls, filePath)
	return f.text, f.err
}

// fakeSummarizer returns a canned summary and records its inputs.
type fakeSummarizer struct {
	summary      string
	ok           bool
	calls        int
	lastText     string
	lastQuestion string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text, question string) (string, bool) {
	f.calls++
	f.lastText = text
	f.lastQuestion = question
	return f.summary, f.ok
}
