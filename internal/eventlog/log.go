package eventlog

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrMalformedLine is returned when a non-blank log line is not a JSON record.
var ErrMalformedLine = errors.New("malformed log line")

// maxLineSize bounds a single record on read.
const maxLineSize = 16 * 1024 * 1024

// Log is an append-only JSONL event log with SHA-256 hash chaining.
// Each record's prev_hash is the hash of the previous record's line.
type Log struct {
	file     *os.File
	prevHash string
	now      func() time.Time
	mu       sync.Mutex
}

// Open opens (or creates) a log file for appending.
// If the file already exists, the last record is read to recover the chain tail.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("eventlog: create directory: %w", err)
	}

	prevHash := GenesisHash
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		last, complete, err := scanTail(path)
		if err != nil {
			return nil, err
		}
		if len(last) > 0 {
			prevHash = HashLine(last)
		}
		// A record cut short by a crash was never acknowledged; drop it so
		// the next append starts on a fresh line.
		if complete < info.Size() {
			if err := os.Truncate(path, complete); err != nil {
				return nil, fmt.Errorf("eventlog: drop torn record: %w", err)
			}
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open file: %w", err)
	}

	return &Log{
		file:     file,
		prevHash: prevHash,
		now:      time.Now,
	}, nil
}

// Append writes one record, stamping a fresh trace id, the current time
// and the chain link. The write is synced before returning; any I/O
// failure is returned and the chain tail is left unchanged.
func (l *Log) Append(kind string, content, meta map[string]any) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{
		TS:       epochSeconds(l.now()),
		TraceID:  NewTraceID(),
		Type:     kind,
		Content:  orEmpty(content),
		Meta:     orEmpty(meta),
		PrevHash: l.prevHash,
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return Event{}, fmt.Errorf("eventlog: marshal event: %w", err)
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return Event{}, fmt.Errorf("eventlog: write event: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return Event{}, fmt.Errorf("eventlog: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return ev, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// ReadAll returns every record in append order. A missing file is an
// empty run. Blank lines are skipped; any other unparseable line fails
// the whole read with ErrMalformedLine. A final line without its newline
// is a record still being written and is not returned.
func ReadAll(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("eventlog: open: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := newScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("eventlog: %w: line %d: %v", ErrMalformedLine, lineNum, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: scan: %w", err)
	}
	return events, nil
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

// scanTail returns the last complete record line and the byte length of
// the file up to and including that line's newline.
func scanTail(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("eventlog: read existing log: %w", err)
	}
	defer f.Close()

	var (
		last     []byte
		complete int64
	)
	scanner := newScanner(f)
	for scanner.Scan() {
		raw := scanner.Bytes()
		complete += int64(len(raw)) + 1
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		last = append(last[:0], line...)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("eventlog: scan existing log: %w", err)
	}
	return last, complete, nil
}

func newScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(ScanRecords)
	return scanner
}

// ScanRecords is a bufio.SplitFunc yielding newline-terminated lines
// without the newline. Trailing bytes with no newline are never returned,
// so a reader racing a writer sees a consistent prefix of the log.
func ScanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	return 0, nil, nil
}
