package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"finserv-doc-pipeline/internal/config"
	"finserv-doc-pipeline/models"
	"finserv-doc-pipeline/services"
	"finserv-doc-pipeline/utils"
)

// solrFake emulates the Solr core endpoints with an in-memory doc map.
type solrFake struct {
	mu             sync.Mutex
	docs           map[string]map[string]interface{}
	extractContent string
}

func newSolrFake(extractContent string) *solrFake {
	return &solrFake{
		docs:           make(map[string]map[string]interface{}),
		extractContent: extractContent,
	}
}

func (f *solrFake) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/testcore/select", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		id := strings.Trim(strings.TrimPrefix(q, "id:"), `"`)

		f.mu.Lock()
		doc, ok := f.docs[id]
		f.mu.Unlock()

		if !ok {
			fmt.Fprint(w, `{"response":{"docs":[]}}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"docs": []interface{}{doc}},
		})
	})

	mux.HandleFunc("/testcore/update/extract", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("literal.id")

		f.mu.Lock()
		f.docs[id] = map[string]interface{}{
			"id":                      id,
			"attr_content":            f.extractContent,
			"attr_stream_source_info": []interface{}{"act.pdf"},
		}
		f.mu.Unlock()

		fmt.Fprint(w, `{"responseHeader":{"status":0}}`)
	})

	mux.HandleFunc("/testcore/update", func(w http.ResponseWriter, r *http.Request) {
		var payload []map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		for _, update := range payload {
			id, _ := update["id"].(string)
			doc, ok := f.docs[id]
			if !ok {
				doc = map[string]interface{}{"id": id}
				f.docs[id] = doc
			}
			for field, value := range update {
				if field == "id" {
					continue
				}
				if set, ok := value.(map[string]interface{}); ok {
					doc[field] = set["set"]
				}
			}
		}
		f.mu.Unlock()

		fmt.Fprint(w, `{"responseHeader":{"status":0}}`)
	})

	return mux
}

func (f *solrFake) field(docID, field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[docID]
	if !ok {
		return ""
	}
	if s, ok := doc[field].(string); ok {
		return s
	}
	return ""
}

type stubOCR struct{ text string }

func (s *stubOCR) ExtractText(ctx context.Context, filePath string) (string, error) {
	return s.text, nil
}

type stubSummarizer struct{}

func (s *stubSummarizer) Summarize(ctx context.Context, text, question string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return "Summary of: " + text, true
}

func newTestRouter(t *testing.T, fake *solrFake, ocrText string) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		SolrBaseURL: srv.URL,
		SolrCore:    "testcore",
		MaxFileSize: 1 << 20,
		TempDir:     t.TempDir(),
		UploadsDir:  t.TempDir(),
	}

	store := services.NewSolrClient(cfg)
	ingestor := services.NewIngestor(cfg, store, &stubOCR{text: ocrText}, &stubSummarizer{})

	router := gin.New()
	SetupDocumentRoutes(router, cfg, ingestor)
	return router, cfg
}

func multipartPDF(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestUploadPDFWithTextLayer(t *testing.T) {
	fake := newSolrFake("This act governs Regulation X mortgage servicing.")
	router, _ := newTestRouter(t, fake, "")

	content := []byte("%PDF-1.4 regulation x body")
	body, contentType := multipartPDF(t, "regx.pdf", content)

	req := httptest.NewRequest(http.MethodPost, "/upload-pdf/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result models.UploadResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
	if !strings.Contains(result.Summary, "Regulation X") {
		t.Fatalf("summary not derived from extraction: %q", result.Summary)
	}

	docID := utils.DocumentID(content)
	if result.DocumentID != docID {
		t.Fatalf("document ID = %s, want %s", result.DocumentID, docID)
	}
	if fake.field(docID, "summary") == "" {
		t.Fatalf("summary not persisted to store")
	}
}

func TestUploadScannedPDFUsesOCR(t *testing.T) {
	fake := newSolrFake("") // no embedded text layer
	router, _ := newTestRouter(t, fake, "Scanned act text recovered by OCR.")

	content := []byte("%PDF-1.4 image only")
	body, contentType := multipartPDF(t, "scan.pdf", content)

	req := httptest.NewRequest(http.MethodPost, "/upload-pdf/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result models.UploadResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
	if !strings.Contains(result.Summary, "Scanned act text") {
		t.Fatalf("summary not derived from OCR: %q", result.Summary)
	}

	docID := utils.DocumentID(content)
	if got := fake.field(docID, "attr_content"); got != "Scanned act text recovered by OCR." {
		t.Fatalf("OCR text not cached in store: %q", got)
	}
}

func TestUploadDuplicateReportsAlreadyExists(t *testing.T) {
	fake := newSolrFake("The act text.")
	router, _ := newTestRouter(t, fake, "")

	content := []byte("%PDF-1.4 dedup me")
	docID := utils.DocumentID(content)
	fake.docs[docID] = map[string]interface{}{
		"id":                      docID,
		"summary":                 []interface{}{"Existing summary."},
		"attr_stream_source_info": []interface{}{"first-upload.pdf"},
	}

	body, contentType := multipartPDF(t, "second-upload.pdf", content)
	req := httptest.NewRequest(http.MethodPost, "/upload-pdf/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result models.UploadResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if result.Status != models.StatusAlreadyExists {
		t.Fatalf("status = %s", result.Status)
	}
	if result.OriginalFilename != "first-upload.pdf" {
		t.Fatalf("original filename = %q", result.OriginalFilename)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	fake := newSolrFake("")
	router, _ := newTestRouter(t, fake, "")

	body, contentType := multipartPDF(t, "notes.txt", []byte("just text"))
	req := httptest.NewRequest(http.MethodPost, "/upload-pdf/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_file_type") {
		t.Fatalf("unexpected error body: %s", w.Body.String())
	}
}

func TestUpdateSummaryWithCustomQuestion(t *testing.T) {
	fake := newSolrFake("")
	router, _ := newTestRouter(t, fake, "")

	fake.docs["doc_known"] = map[string]interface{}{
		"id":                      "doc_known",
		"attr_content":            "The act caps overdraft fees.",
		"attr_stream_source_info": []interface{}{"act.pdf"},
	}

	req := httptest.NewRequest(http.MethodGet, "/update-summary/doc_known?summarizing_question=Which+fees+are+capped%3F", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result models.SummaryResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if result.Status != models.StatusSummaryUpdated {
		t.Fatalf("status = %s", result.Status)
	}
	if fake.field("doc_known", "summary") == "" {
		t.Fatalf("summary not persisted")
	}
}

func TestGetDocumentUnknownReturns404(t *testing.T) {
	fake := newSolrFake("")
	router, _ := newTestRouter(t, fake, "")

	req := httptest.NewRequest(http.MethodGet, "/document/doc_ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "doc_ghost") {
		t.Fatalf("404 body does not name the ID: %s", w.Body.String())
	}
}

func TestGetDocumentFound(t *testing.T) {
	fake := newSolrFake("")
	router, _ := newTestRouter(t, fake, "")

	fake.docs["doc_known"] = map[string]interface{}{
		"id":                      "doc_known",
		"summary":                 "A summary.",
		"attr_stream_source_info": []interface{}{"act.pdf"},
	}

	req := httptest.NewRequest(http.MethodGet, "/document/doc_known", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var info models.DocumentInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if info.Status != models.StatusFound || !info.HasSummary || info.Filename != "act.pdf" {
		t.Fatalf("unexpected info: %+v", info)
	}
}
