package services

import (
	"path/filepath"
	"strings"

	"finserv-doc-pipeline/internal/config"
	"finserv-doc-pipeline/internal/logger"
	"finserv-doc-pipeline/models"
	"finserv-doc-pipeline/utils"
)

// Locator finds a usable on-disk copy of a document's original file. The
// system has no durable storage of uploads, only the stored URI hint plus a
// documented convention of candidate locations; callers depend on the probe
// order staying stable.
type Locator struct {
	tempDir    string
	uploadsDir string
}

func NewLocator(cfg *config.Config) *Locator {
	return &Locator{
		tempDir:    cfg.TempDir,
		uploadsDir: cfg.UploadsDir,
	}
}

// SourcePath resolves only the stored source URI, stripping a file:// scheme
// prefix. Used where conventional-location guessing is not wanted.
func (l *Locator) SourcePath(record *models.DocumentRecord) (string, bool) {
	if record == nil || record.SourceURI == "" {
		return "", false
	}
	path := strings.TrimPrefix(record.SourceURI, "file://")
	if utils.FileExists(path) {
		return path, true
	}
	logger.Debug("Stored source URI does not exist on disk", "doc_id", record.ID, "uri", record.SourceURI)
	return "", false
}

// Locate returns the first existing path for the document's source file. The
// stored source URI wins over conventional fallback locations.
func (l *Locator) Locate(record *models.DocumentRecord, docID, fallbackFilename string) (string, bool) {
	if path, ok := l.SourcePath(record); ok {
		return path, true
	}

	filename := fallbackFilename
	if record != nil && record.SourceFilename != "" {
		filename = record.SourceFilename
	}
	if filename == "" {
		return "", false
	}

	candidates := []string{
		filepath.Join(l.tempDir, utils.ContentHash(docID)+"_"+filename),
		filepath.Join(l.tempDir, filename),
		filepath.Join(l.tempDir, docID+"_"+filename),
		filepath.Join(l.uploadsDir, filename),
		filepath.Join(l.uploadsDir, docID+"_"+filename),
	}

	for _, path := range candidates {
		if utils.FileExists(path) {
			return path, true
		}
	}
	return "", false
}
