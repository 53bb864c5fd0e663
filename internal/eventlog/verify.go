package eventlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult holds the outcome of a hash chain verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Records   int    `json:"records"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify walks a run log and validates the prev_hash chain, reporting
// the first broken link. Blank lines are ignored. A missing file is an
// empty, valid chain.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return VerifyResult{Valid: true}
		}
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := newScanner(f)
	lineNum := 0
	records := 0
	expected := GenesisHash

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return VerifyResult{
				Records:   records,
				Error:     fmt.Sprintf("parse error: %v", err),
				ErrorLine: lineNum,
			}
		}

		if ev.PrevHash != expected {
			msg := fmt.Sprintf("hash mismatch: expected %s, got %s", expected, ev.PrevHash)
			if records == 0 {
				msg = fmt.Sprintf("first record prev_hash is %q, expected genesis hash", ev.PrevHash)
			}
			return VerifyResult{
				Records:   records,
				Error:     msg,
				ErrorLine: lineNum,
			}
		}

		records++
		expected = HashLine(line)
	}

	if err := scanner.Err(); err != nil {
		return VerifyResult{Records: records, Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyResult{Valid: true, Records: records}
}
