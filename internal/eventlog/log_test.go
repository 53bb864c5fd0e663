package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run", LogFileName)
	l, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open event log: %v", err)
	}
	return l, path
}

func choiceContent(i int) map[string]any {
	return map[string]any{
		"request":   map[string]any{"text": fmt.Sprintf("request %d", i), "style": nil},
		"response":  "ok",
		"rationale": "stage2plus_preference",
	}
}

func TestRoundTripPreservesOrderAndContent(t *testing.T) {
	l, path := newTestLog(t)

	const n = 7
	var appended []Event
	for i := 0; i < n; i++ {
		ev, err := l.Append("CHOICE", choiceContent(i), map[string]any{"preference_vote": "efficiency"})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		appended = append(appended, ev)
	}
	l.Close()

	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != n {
		t.Fatalf("expected %d events, got %d", n, len(events))
	}
	for i, ev := range events {
		if ev.TraceID != appended[i].TraceID {
			t.Errorf("event %d: expected trace %s, got %s", i, appended[i].TraceID, ev.TraceID)
		}
		if !reflect.DeepEqual(ev.Content, choiceContent(i)) {
			t.Errorf("event %d: content changed: %v", i, ev.Content)
		}
		if ev.Meta["preference_vote"] != "efficiency" {
			t.Errorf("event %d: meta changed: %v", i, ev.Meta)
		}
	}
}

func TestAppendStampsUniqueTraceIDs(t *testing.T) {
	l, _ := newTestLog(t)
	defer l.Close()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ev, err := l.Append("DELAY", nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(ev.TraceID) != 32 {
			t.Errorf("expected 32-char trace id, got %q", ev.TraceID)
		}
		if seen[ev.TraceID] {
			t.Fatalf("duplicate trace id %s", ev.TraceID)
		}
		seen[ev.TraceID] = true
	}
}

func TestAppendWritesEmptyObjectsForNilPayloads(t *testing.T) {
	l, path := newTestLog(t)
	if _, err := l.Append("DELAY", nil, nil); err != nil {
		t.Fatal(err)
	}
	l.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"content":{},"meta":{}`) {
		t.Errorf("expected empty objects, got %s", data)
	}
}

func TestAppendTimestampIsEpochSeconds(t *testing.T) {
	l, _ := newTestLog(t)
	defer l.Close()
	fixed := time.Date(2025, 1, 15, 14, 0, 0, 500_000_000, time.UTC)
	l.now = func() time.Time { return fixed }

	ev, err := l.Append("CHOICE", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ev.TS != 1736949600.5 {
		t.Errorf("expected 1736949600.5, got %f", ev.TS)
	}
	if !ev.Time().Equal(fixed) {
		t.Errorf("expected %v, got %v", fixed, ev.Time())
	}
}

func TestReadAllMissingFileIsEmptyRun(t *testing.T) {
	events, err := ReadAll(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestReadAllSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.jsonl")
	content := "\n" +
		`{"ts":1,"trace_id":"a","type":"CHOICE","content":{},"meta":{}}` + "\n" +
		"   \n\n" +
		`{"ts":2,"trace_id":"b","type":"REFUSAL","content":{},"meta":{}}` + "\n"
	os.WriteFile(path, []byte(content), 0644)

	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].TraceID != "a" || events[1].TraceID != "b" {
		t.Errorf("unexpected order: %s, %s", events[0].TraceID, events[1].TraceID)
	}
}

func TestReadAllFailsOnMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	content := `{"ts":1,"trace_id":"a","type":"CHOICE","content":{},"meta":{}}` + "\n" +
		"{not json\n"
	os.WriteFile(path, []byte(content), 0644)

	_, err := ReadAll(path)
	if !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("expected ErrMalformedLine, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line number in error, got %v", err)
	}
}

func writeTornRecord(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"ts":1.5,"trace_id":"abc","type":"CHO`); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestReadAllStopsAtUnterminatedLine(t *testing.T) {
	l, path := newTestLog(t)
	if _, err := l.Append("CHOICE", choiceContent(0), nil); err != nil {
		t.Fatal(err)
	}
	writeTornRecord(t, path)

	events, err := ReadAll(path)
	if err != nil {
		t.Fatalf("expected the complete prefix, got %v", err)
	}
	if len(events) != 1 || events[0].Type != "CHOICE" {
		t.Fatalf("expected 1 CHOICE record, got %+v", events)
	}

	if result := Verify(path); !result.Valid || result.Records != 1 {
		t.Errorf("expected valid 1-record chain, got %+v", result)
	}
	l.Close()
}

func TestOpenDropsTornRecord(t *testing.T) {
	l, path := newTestLog(t)
	if _, err := l.Append("CHOICE", choiceContent(0), nil); err != nil {
		t.Fatal(err)
	}
	l.Close()
	writeTornRecord(t, path)

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Append("REFUSAL", nil, nil); err != nil {
		t.Fatal(err)
	}
	l.Close()

	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].Type != "REFUSAL" {
		t.Fatalf("expected CHOICE then REFUSAL, got %+v", events)
	}
	if result := Verify(path); !result.Valid {
		t.Errorf("chain broken after recovery: %+v", result)
	}
}

func TestDecodeTypeKey(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`{"ts":1,"trace_id":"a","type":"CHOICE"}`, "CHOICE"},
		{`{"ts":1,"trace_id":"a","type":""}`, ""},
		{`{"ts":1,"trace_id":"a","type":null}`, UnknownType},
		{`{"ts":1,"trace_id":"a"}`, UnknownType},
	}
	for _, tt := range tests {
		var ev Event
		if err := json.Unmarshal([]byte(tt.line), &ev); err != nil {
			t.Fatalf("%s: %v", tt.line, err)
		}
		if ev.Type != tt.want {
			t.Errorf("%s: expected type %q, got %q", tt.line, tt.want, ev.Type)
		}
		if ev.TraceID != "a" {
			t.Errorf("%s: other fields not decoded: %+v", tt.line, ev)
		}
	}
}

func TestAppendFailureIsReturned(t *testing.T) {
	l, _ := newTestLog(t)
	l.Close()

	if _, err := l.Append("CHOICE", nil, nil); err == nil {
		t.Fatal("expected append on closed log to fail")
	}
}

func TestSequentialAppendsProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 5; i++ {
		if _, err := l.Append("CHOICE", choiceContent(i), nil); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Records != 5 {
		t.Fatalf("expected 5 records, got %d", result.Records)
	}
}

func TestFirstRecordReferencesGenesis(t *testing.T) {
	l, path := newTestLog(t)
	l.Append("CHOICE", nil, nil)
	l.Close()

	data, _ := os.ReadFile(path)
	var ev Event
	json.Unmarshal([]byte(strings.TrimSpace(string(data))), &ev)
	if ev.PrevHash != GenesisHash {
		t.Fatalf("expected genesis hash, got %s", ev.PrevHash)
	}
}

func TestVerifyDetectsTamperedRecord(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		l.Append("CHOICE", nil, map[string]any{"preference_vote": "safety"})
	}
	l.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lines[1] = strings.Replace(lines[1], `"safety"`, `"efficiency"`, 1)
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected tampered chain to be invalid")
	}
	if result.ErrorLine != 3 {
		t.Fatalf("expected error at line 3, got line %d", result.ErrorLine)
	}
}

func TestVerifyDetectsDeletedRecord(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		l.Append("CHOICE", nil, nil)
	}
	l.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	os.WriteFile(path, []byte(lines[0]+"\n"+lines[2]+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected chain with deleted record to be invalid")
	}
	if result.ErrorLine != 2 {
		t.Fatalf("expected error at line 2, got line %d", result.ErrorLine)
	}
}

func TestVerifyMissingAndEmptyLogs(t *testing.T) {
	if r := Verify(filepath.Join(t.TempDir(), "none.jsonl")); !r.Valid {
		t.Errorf("expected missing log to be valid, got %s", r.Error)
	}

	path := filepath.Join(t.TempDir(), "empty.jsonl")
	os.WriteFile(path, []byte{}, 0644)
	r := Verify(path)
	if !r.Valid || r.Records != 0 {
		t.Errorf("expected empty valid chain, got %+v", r)
	}
}

func TestReopenContinuesChain(t *testing.T) {
	l1, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		l1.Append("CHOICE", nil, nil)
	}
	l1.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		l2.Append("REFUSAL", nil, nil)
	}
	l2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after reopen, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Records != 5 {
		t.Fatalf("expected 5 records, got %d", result.Records)
	}
}

func TestConcurrentAppendsSerialize(t *testing.T) {
	l, path := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append("CHOICE", nil, nil)
		}()
	}
	wg.Wait()
	l.Close()

	result := Verify(path)
	if !result.Valid || result.Records != 50 {
		t.Fatalf("expected 50 valid records, got %+v", result)
	}
}

func TestHashLineFormat(t *testing.T) {
	h := HashLine([]byte(`{"ts":1}`))
	if h != HashLine([]byte(`{"ts":1}`)) {
		t.Fatal("expected deterministic hash")
	}
	if !strings.HasPrefix(h, "sha256:") || len(h) != 7+64 {
		t.Fatalf("unexpected hash %s", h)
	}
}
