package services

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"finserv-doc-pipeline/internal/config"
	"finserv-doc-pipeline/internal/logger"
)

// Temp artifacts this service creates: hash-prefixed upload copies, ocr_
// copies and ocr_pages_ work dirs. Scoped cleanup removes them in-request;
// the janitor catches what a crash left behind.
var tempArtifactPattern = regexp.MustCompile(`^([0-9a-f]{64}_|ocr_)`)

// Janitor periodically sweeps stale temp files from the configured temp dir.
type Janitor struct {
	scheduler *gocron.Scheduler
	tempDir   string
	ttl       time.Duration
	interval  time.Duration
}

func NewJanitor(cfg *config.Config) *Janitor {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &Janitor{
		scheduler: s,
		tempDir:   cfg.TempDir,
		ttl:       cfg.TempFileTTL,
		interval:  cfg.JanitorInterval,
	}
}

// Start schedules the sweep and runs the scheduler in the background.
func (j *Janitor) Start() error {
	_, err := j.scheduler.Every(j.interval).Tag("temp-sweep-" + uuid.NewString()).Do(func() {
		if err := j.Sweep(); err != nil {
			logger.Warn("Temp file sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	logger.Info("Temp file janitor started", "dir", j.tempDir, "interval", j.interval.String(), "ttl", j.ttl.String())
	return nil
}

// Stop stops the scheduler.
func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

// Sweep removes temp artifacts older than the TTL.
func (j *Janitor) Sweep() error {
	entries, err := os.ReadDir(j.tempDir)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-j.ttl)
	removed := 0

	for _, entry := range entries {
		if !tempArtifactPattern.MatchString(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.tempDir, entry.Name())
		if entry.IsDir() {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil {
			logger.Warn("Failed to remove stale temp artifact", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Removed stale temp artifacts", "count", removed)
	}
	return nil
}
