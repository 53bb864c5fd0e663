// Package follow streams records appended to a run log as they land.
package follow

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/pida/internal/eventlog"
)

// pollDefault is the rescan interval used alongside (or instead of) fsnotify.
const pollDefault = time.Second

// maxLineSize bounds a single record, matching the log reader.
const maxLineSize = 16 * 1024 * 1024

// Follower reads complete records appended to a log after a byte offset.
// A trailing line without its newline is left for the next read.
type Follower struct {
	path    string
	offset  int64
	handler func(eventlog.Event)
	poll    time.Duration
}

// New creates a follower that delivers every record starting at offset.
func New(path string, offset int64, handler func(eventlog.Event)) *Follower {
	return &Follower{
		path:    filepath.Clean(path),
		offset:  offset,
		handler: handler,
		poll:    pollDefault,
	}
}

// Offset returns the byte offset just past the last delivered record.
func (f *Follower) Offset() int64 {
	return f.offset
}

// Run delivers records until ctx is cancelled or a malformed record is
// read. The parent directory is watched so the log may not exist yet.
// When fsnotify is unavailable the follower falls back to polling.
func (f *Follower) Run(ctx context.Context) error {
	if err := f.drain(); err != nil {
		return err
	}

	var events chan fsnotify.Event
	var errs chan error
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer func() { _ = watcher.Close() }()
		if err := watcher.Add(filepath.Dir(f.path)); err == nil {
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if err := f.drain(); err != nil {
				return err
			}

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := f.drain(); err != nil {
				return err
			}

		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		}
	}
}

// drain reads from the current offset to EOF and hands each complete
// record to the handler.
func (f *Follower) drain() error {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("follow: open: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("follow: stat: %w", err)
	}
	// Truncated or replaced: start over.
	if info.Size() < f.offset {
		f.offset = 0
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("follow: seek: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(eventlog.ScanRecords)
	for scanner.Scan() {
		raw := scanner.Bytes()
		start := f.offset
		f.offset += int64(len(raw)) + 1

		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		var ev eventlog.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("follow: %w: offset %d: %v", eventlog.ErrMalformedLine, start, err)
		}
		f.handler(ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("follow: read: %w", err)
	}
	return nil
}
