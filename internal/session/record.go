package session

import (
	"fmt"

	"github.com/ppiankov/pida/internal/model"
)

// Recorder accepts classified memory events. *memory.Store satisfies it.
type Recorder interface {
	Add(kind model.EventKind, content, meta map[string]any) (string, error)
}

// Record classifies a decision into exactly one memory event and persists it:
// a denied gate becomes a REFUSAL with the gate reason; an allowed gate whose
// output refuses becomes a REFUSAL that also carries the policy rationale and
// text; anything else becomes a CHOICE carrying the turn's preference vote.
// Those CHOICE votes are what the preference signal reads back.
func Record(rec Recorder, req model.Request, gate model.ConstraintResult, out model.PolicyOutput) (model.EventKind, string, error) {
	var (
		kind    model.EventKind
		content map[string]any
		meta    map[string]any
	)

	switch {
	case !gate.Allowed:
		kind = model.KindRefusal
		content = map[string]any{
			"request": req.ToMap(),
			"reason":  gate.Reason,
		}
		meta = map[string]any{"capability": string(gate.Capability)}

	case out.IsRefusal():
		kind = model.KindRefusal
		content = map[string]any{
			"request":       req.ToMap(),
			"reason":        gate.Reason,
			"policy_reason": out.Rationale,
			"text":          out.Text,
		}
		meta = map[string]any{"capability": string(out.CapabilityUsed)}

	default:
		kind = model.KindChoice
		content = map[string]any{
			"request":   req.ToMap(),
			"response":  out.Text,
			"rationale": out.Rationale,
		}
		meta = map[string]any{
			"capability":      string(out.CapabilityUsed),
			"preference_vote": string(out.PreferenceVote),
		}
	}

	trace, err := rec.Add(kind, content, meta)
	if err != nil {
		return "", "", fmt.Errorf("session: record %s: %w", kind, err)
	}
	return kind, trace, nil
}
