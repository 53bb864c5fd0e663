package eventlog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunIDTimeFormat is the sortable timestamp prefix of generated run ids.
const RunIDTimeFormat = "20060102_150405"

// NewTraceID returns a 32-char hex id unique within a run.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewRunID returns "<yyyymmdd_hhmmss>_<8 hex>". The random suffix keeps ids
// distinct for runs created in the same second.
func NewRunID(now time.Time) string {
	return now.Format(RunIDTimeFormat) + "_" + NewTraceID()[:8]
}
