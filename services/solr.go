package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"finserv-doc-pipeline/internal/config"
	"finserv-doc-pipeline/models"
)

// Solr field names backing the document record.
const (
	FieldContent        = "attr_content"
	FieldSummary        = "summary"
	FieldSourceFilename = "attr_stream_source_info"
	FieldSourceURI      = "file_uri"
)

// DocumentStore is the adapter surface over the external indexing engine.
type DocumentStore interface {
	Exists(ctx context.Context, docID string) (bool, *models.DocumentRecord, error)
	ExtractAndIndex(ctx context.Context, docID, filePath string) error
	ReadExtractedText(ctx context.Context, docID string) (string, error)
	UpdateField(ctx context.Context, docID, field, value string) error
}

// SolrClient talks to a single Solr core over its query/update endpoints.
type SolrClient struct {
	baseURL     string
	commitDelay time.Duration
	httpClient  *http.Client
}

// NewSolrClient creates a store adapter for the configured core.
func NewSolrClient(cfg *config.Config) *SolrClient {
	return &SolrClient{
		baseURL:     cfg.SolrURL(),
		commitDelay: cfg.SolrCommitDelay,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type solrSelectResponse struct {
	Response struct {
		Docs []map[string]interface{} `json:"docs"`
	} `json:"response"`
}

// Exists checks whether a document with the given ID is already indexed and
// returns its stored fields when present.
func (s *SolrClient) Exists(ctx context.Context, docID string) (bool, *models.DocumentRecord, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("id:%q", docID))
	params.Set("fl", strings.Join([]string{"id", FieldSummary, FieldSourceFilename, FieldSourceURI}, ","))
	params.Set("wt", "json")

	docs, err := s.selectQuery(ctx, params)
	if err != nil {
		return false, nil, err
	}
	if len(docs) == 0 {
		return false, nil, nil
	}

	doc := docs[0]
	record := &models.DocumentRecord{
		ID:             docID,
		Summary:        fieldFirst(doc, FieldSummary),
		SourceFilename: fieldFirst(doc, FieldSourceFilename),
		SourceURI:      fieldFirst(doc, FieldSourceURI),
	}
	return true, record, nil
}

// ExtractAndIndex submits file bytes for server-side text extraction and
// indexing under the given ID, committing immediately.
func (s *SolrClient) ExtractAndIndex(ctx context.Context, docID, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%w: failed to open file for extraction: %v", ErrUpstream, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("myfile", filePath)
	if err != nil {
		return fmt.Errorf("%w: failed to create form file: %v", ErrUpstream, err)
	}
	if _, err := io.Copy(fileWriter, f); err != nil {
		return fmt.Errorf("%w: failed to copy file data: %v", ErrUpstream, err)
	}
	writer.Close()

	extractURL := fmt.Sprintf("%s/update/extract?commit=true&literal.id=%s&uprefix=attr_&fmap.content=content",
		s.baseURL, url.QueryEscape(docID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, extractURL, &buf)
	if err != nil {
		return fmt.Errorf("%w: failed to create extract request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: extract request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: extract request returned status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}
	return nil
}

// ReadExtractedText fetches the extracted content for a document. A short
// fixed delay before querying accommodates Solr's commit latency; this is a
// known compromise, not a verified-commit wait.
func (s *SolrClient) ReadExtractedText(ctx context.Context, docID string) (string, error) {
	select {
	case <-time.After(s.commitDelay):
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("id:%q", docID))
	params.Set("fl", FieldContent)
	params.Set("wt", "json")

	docs, err := s.selectQuery(ctx, params)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: no document with ID '%s'", ErrNotFound, docID)
	}

	return strings.TrimSpace(fieldString(docs[0], FieldContent)), nil
}

// UpdateField performs a set-semantics partial update of a single field,
// committing immediately.
func (s *SolrClient) UpdateField(ctx context.Context, docID, field, value string) error {
	payload := []map[string]interface{}{
		{
			"id":  docID,
			field: map[string]string{"set": value},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to encode update payload: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/update?commit=true", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create update request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: update request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: update request returned status %d: %s", ErrUpstream, resp.StatusCode, string(respBody))
	}
	return nil
}

func (s *SolrClient) selectQuery(ctx context.Context, params url.Values) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/select?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create select request: %v", ErrUpstream, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: select request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: select request returned status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var decoded solrSelectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode select response: %v", ErrUpstream, err)
	}
	return decoded.Response.Docs, nil
}

// fieldFirst reads a logically single-valued field that Solr may store as a
// list, taking the first element.
func fieldFirst(doc map[string]interface{}, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if str, ok := v[0].(string); ok {
				return str
			}
		}
		return ""
	default:
		return ""
	}
}

// fieldString normalizes a Solr field value to a single string. Multi-valued
// fields are joined with a space.
func fieldString(doc map[string]interface{}, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				parts = append(parts, str)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
