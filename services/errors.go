package services

import "errors"

// Error kinds the orchestrator and handlers branch on. Wrap with
// fmt.Errorf("...: %w", Err...) and test with errors.Is.
var (
	// ErrNotFound means the requested document ID is absent from the store.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidInput covers wrong file types and documents from which no
	// text is extractable by any means.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream is a store or transport failure on the mandatory path.
	ErrUpstream = errors.New("upstream failure")

	// ErrSummarization means the LLM call failed or returned unusable content.
	ErrSummarization = errors.New("summarization failed")
)
