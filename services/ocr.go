package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"finserv-doc-pipeline/internal/config"
	"finserv-doc-pipeline/internal/logger"
)

// OCREngine extracts plain text from a PDF on disk. Best effort: callers
// treat failures as "no text".
type OCREngine interface {
	ExtractText(ctx context.Context, filePath string) (string, error)
}

// PDFOCREngine reads the embedded text layer first and falls back to
// rasterizing pages (pdftoppm) and running tesseract on each image.
type PDFOCREngine struct {
	dpi     int
	timeout time.Duration
	tempDir string
}

func NewPDFOCREngine(cfg *config.Config) *PDFOCREngine {
	return &PDFOCREngine{
		dpi:     cfg.OCRDPI,
		timeout: cfg.OCRTimeout,
		tempDir: cfg.TempDir,
	}
}

func (e *PDFOCREngine) ExtractText(ctx context.Context, filePath string) (string, error) {
	// Cheap first pass: some "scanned" PDFs still carry a partial text layer.
	if text, err := e.extractTextLayer(filePath); err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), nil
	}

	return e.extractWithTesseract(ctx, filePath)
}

// extractTextLayer pulls the embedded text layer using the Go PDF library.
func (e *PDFOCREngine) extractTextLayer(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Debug("Failed to extract text layer from page", "page", i, "error", err)
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// extractWithTesseract rasterizes each page with pdftoppm and OCRs the
// resulting images with tesseract.
func (e *PDFOCREngine) extractWithTesseract(ctx context.Context, filePath string) (string, error) {
	if !hasBinary("pdftoppm") {
		return "", fmt.Errorf("pdftoppm not available")
	}
	if !hasBinary("tesseract") {
		return "", fmt.Errorf("tesseract not available")
	}

	ocrCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	workDir := filepath.Join(e.tempDir, "ocr_pages_"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create OCR work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	prefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ocrCtx, "pdftoppm", "-r", fmt.Sprintf("%d", e.dpi), "-png", filePath, prefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm failed: %v, stderr: %s", err, stderr.String())
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("no page images produced for %s", filePath)
	}
	sort.Strings(images)

	var textBuilder strings.Builder
	for _, img := range images {
		pageText, err := e.runTesseract(ocrCtx, img)
		if err != nil {
			logger.Warn("Tesseract failed on page image", "image", img, "error", err)
			continue
		}
		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

func (e *PDFOCREngine) runTesseract(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "tesseract", imagePath, "stdout", "--psm", "6")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %v, stderr: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// hasBinary checks if a binary executable exists in PATH
func hasBinary(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
