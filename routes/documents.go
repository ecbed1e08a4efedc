package routes

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finserv-doc-pipeline/internal/config"
	"finserv-doc-pipeline/internal/logger"
	"finserv-doc-pipeline/middleware"
	"finserv-doc-pipeline/services"
	"finserv-doc-pipeline/utils"
)

// SetupDocumentRoutes registers the document ingestion and summarization
// endpoints.
func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, ingestor *services.Ingestor) {
	router.POST("/upload-pdf/", HandlePDFUpload(cfg, ingestor))
	router.GET("/update-summary/:doc_id", HandleUpdateSummary(ingestor))
	router.POST("/update-summary-with-file/:doc_id", HandleUpdateSummaryWithFile(cfg, ingestor))
	router.GET("/document/:doc_id", HandleGetDocument(ingestor))
}

// HandlePDFUpload ingests a PDF upload, deduplicating by content hash.
func HandlePDFUpload(cfg *config.Config, ingestor *services.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename, content, ok := readPDFUpload(c, cfg)
		if !ok {
			return
		}

		result, err := ingestor.UploadPDF(c.Request.Context(), filename, content)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		logger.Info("Upload processed", "request_id", middleware.GetRequestID(c), "doc_id", result.DocumentID, "status", result.Status)
		c.JSON(http.StatusOK, result)
	}
}

// HandleUpdateSummary regenerates the summary for an indexed document,
// optionally steered by a summarizing_question query parameter.
func HandleUpdateSummary(ingestor *services.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID := c.Param("doc_id")
		question := c.Query("summarizing_question")

		result, err := ingestor.UpdateSummary(c.Request.Context(), docID, question)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleUpdateSummaryWithFile regenerates a summary from a supplied PDF via
// OCR, for documents whose original file is no longer available.
func HandleUpdateSummaryWithFile(cfg *config.Config, ingestor *services.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID := c.Param("doc_id")

		filename, content, ok := readPDFUpload(c, cfg)
		if !ok {
			return
		}

		result, err := ingestor.UpdateSummaryWithFile(c.Request.Context(), docID, filename, content)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleGetDocument returns document info including its summary.
func HandleGetDocument(ingestor *services.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID := c.Param("doc_id")

		info, err := ingestor.GetDocument(c.Request.Context(), docID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, info)
	}
}

// readPDFUpload validates and reads the multipart PDF from the request.
// Responds with a client error and returns ok=false on any validation
// failure.
func readPDFUpload(c *gin.Context, cfg *config.Config) (string, []byte, bool) {
	if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", "File size exceeds maximum limit", nil)
		return "", nil, false
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "no_file", "No PDF file provided", nil)
		return "", nil, false
	}
	defer file.Close()

	if !isPDFUpload(file, header) {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type", "Only PDF files are allowed", nil)
		return "", nil, false
	}

	if header.Size > cfg.MaxFileSize {
		utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", "File size exceeds maximum limit", nil)
		return "", nil, false
	}

	content, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize))
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
		return "", nil, false
	}

	return header.Filename, content, true
}

// isPDFUpload checks extension and magic bytes, then rewinds the reader.
func isPDFUpload(file multipart.File, header *multipart.FileHeader) bool {
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		ct := header.Header.Get("Content-Type")
		if !strings.Contains(ct, "pdf") {
			return false
		}
	}

	headerBuf := make([]byte, 5)
	if _, err := io.ReadFull(file, headerBuf); err != nil {
		return false
	}
	if string(headerBuf[:4]) != "%PDF" {
		return false
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return true
}

// respondServiceError maps the service error taxonomy to HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithNotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		utils.RespondWithBadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrSummarization):
		utils.RespondWithInternalError(c, err.Error(), nil)
	default:
		logger.Error("Request failed", "request_id", middleware.GetRequestID(c), "error", err)
		utils.RespondWithInternalError(c, err.Error(), nil)
	}
}
