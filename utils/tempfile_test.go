package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveTempFileAndRelease(t *testing.T) {
	dir := t.TempDir()

	tf, err := SaveTempFile(dir, "abc_test.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !FileExists(tf.Path) {
		t.Fatalf("temp file not on disk: %s", tf.Path)
	}

	data, err := os.ReadFile(tf.Path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected content: %q", data)
	}

	tf.Release()
	if FileExists(filepath.Join(dir, "abc_test.pdf")) {
		t.Fatalf("temp file still exists after release")
	}

	// Release must be safe to call again
	tf.Release()
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()

	if FileExists(filepath.Join(dir, "missing.pdf")) {
		t.Fatalf("missing file reported as existing")
	}

	if FileExists(dir) {
		t.Fatalf("directory reported as a file")
	}

	path := filepath.Join(dir, "present.pdf")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !FileExists(path) {
		t.Fatalf("existing file not detected")
	}
}
