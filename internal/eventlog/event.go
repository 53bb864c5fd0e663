package eventlog

import (
	"encoding/json"
	"math"
	"time"
)

// GenesisHash is the prev_hash of the first record in a new log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// UnknownType is the type given to records decoded without a type key.
const UnknownType = "UNKNOWN"

// Event is one line of a run's JSONL log. Records are never rewritten
// once appended.
type Event struct {
	TS       float64        `json:"ts"`
	TraceID  string         `json:"trace_id"`
	Type     string         `json:"type"`
	Content  map[string]any `json:"content"`
	Meta     map[string]any `json:"meta"`
	PrevHash string         `json:"prev_hash,omitempty"`
}

// UnmarshalJSON decodes a record. Only a missing or null type becomes
// UnknownType; any present string, empty included, is kept as written.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		Type *string `json:"type"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Type = UnknownType
	if aux.Type != nil {
		e.Type = *aux.Type
	}
	return nil
}

// Time converts the epoch-seconds timestamp to a UTC time.
func (e Event) Time() time.Time {
	sec, frac := math.Modf(e.TS)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// epochSeconds renders t as float epoch seconds.
func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
