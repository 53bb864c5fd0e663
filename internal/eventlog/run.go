package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogFileName is the file holding a run's events inside its directory.
const LogFileName = "life_log.jsonl"

// Run identifies one continuous session and where its log lives.
type Run struct {
	ID      string
	Dir     string
	LogPath string
}

// EnsureRun resolves a run under baseDir, creating directories as needed.
// An empty id starts a new run; an existing id resumes it.
func EnsureRun(baseDir, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewRunID(time.Now())
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return Run{}, fmt.Errorf("eventlog: invalid run id %q", id)
	}

	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Run{}, fmt.Errorf("eventlog: create run directory: %w", err)
	}

	return Run{
		ID:      id,
		Dir:     dir,
		LogPath: filepath.Join(dir, LogFileName),
	}, nil
}

// LocateRun resolves an existing run without creating anything.
func LocateRun(baseDir, id string) (Run, error) {
	if strings.TrimSpace(id) == "" {
		return Run{}, fmt.Errorf("eventlog: run id is required")
	}
	dir := filepath.Join(baseDir, id)
	if _, err := os.Stat(dir); err != nil {
		return Run{}, fmt.Errorf("eventlog: run %s: %w", id, err)
	}
	return Run{
		ID:      id,
		Dir:     dir,
		LogPath: filepath.Join(dir, LogFileName),
	}, nil
}
