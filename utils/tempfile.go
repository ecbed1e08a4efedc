package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"finserv-doc-pipeline/internal/logger"
)

// TempFile is an ephemeral on-disk copy of uploaded bytes, owned by the
// request that created it. Release must run on every exit path.
type TempFile struct {
	Path string
}

// SaveTempFile writes content to dir/name and returns a handle whose Release
// removes the file. Callers defer Release immediately after a nil error.
func SaveTempFile(dir, name string, content []byte) (*TempFile, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return nil, fmt.Errorf("failed to save temp file: %w", err)
	}
	return &TempFile{Path: path}, nil
}

// Release removes the underlying file. Safe to call more than once.
func (t *TempFile) Release() {
	if t == nil || t.Path == "" {
		return
	}
	if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove temp file", "path", t.Path, "error", err)
	}
	t.Path = ""
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
