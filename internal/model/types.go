package model

import (
	"slices"

	"github.com/ppiankov/pida/internal/stage"
)

// Style is the pace a request asks for. Empty means no style marker was found.
type Style string

const (
	StyleNone    Style = ""
	StyleFast    Style = "fast"
	StyleCareful Style = "careful"
)

// Request is one parsed user input.
type Request struct {
	Text  string `json:"text"`
	Style Style  `json:"style,omitempty"`
}

// ToMap converts the request to the payload shape stored in event content.
// A missing style is stored as null.
func (r Request) ToMap() map[string]any {
	var style any
	if r.Style != StyleNone {
		style = string(r.Style)
	}
	return map[string]any{
		"text":  r.Text,
		"style": style,
	}
}

// EventKind classifies a logged event.
type EventKind string

const (
	KindChoice   EventKind = "CHOICE"
	KindRefusal  EventKind = "REFUSAL"
	KindConflict EventKind = "CONFLICT"
	KindDelay    EventKind = "DELAY"
)

// MemoryKinds are the only kinds the memory store accepts.
var MemoryKinds = []EventKind{KindChoice, KindRefusal, KindConflict, KindDelay}

// IsMemoryKind reports whether k is accepted by the memory store.
func (k EventKind) IsMemoryKind() bool {
	return slices.Contains(MemoryKinds, k)
}

// PreferenceVote is the per-decision tag that biases future leaning.
type PreferenceVote string

const (
	VoteEfficiency PreferenceVote = "efficiency"
	VoteSafety     PreferenceVote = "safety"
	VoteNeutral    PreferenceVote = "neutral"
)

// VoteCounts tallies preference votes.
type VoteCounts struct {
	Efficiency int `json:"efficiency"`
	Safety     int `json:"safety"`
	Neutral    int `json:"neutral"`
}

// Add tallies v if it is a recognized vote. Returns false for anything else.
func (vc *VoteCounts) Add(v any) bool {
	s, ok := v.(string)
	if !ok {
		if pv, isVote := v.(PreferenceVote); isVote {
			s = string(pv)
		} else {
			return false
		}
	}
	switch PreferenceVote(s) {
	case VoteEfficiency:
		vc.Efficiency++
	case VoteSafety:
		vc.Safety++
	case VoteNeutral:
		vc.Neutral++
	default:
		return false
	}
	return true
}

// Rationale values are short machine-readable reasons attached to outputs.
const (
	RationaleStage0Ack         = "stage0_ack"
	RationaleStage1Record      = "stage1_record"
	RationaleStage2Preference  = "stage2plus_preference"
	RationaleStage3Consistency = "stage3_refuse_consistency"
	RationaleFallback          = "fallback"
)

// PolicyOutput is the decision artifact produced by the policy.
// It is not persisted directly; the session turns it into an event.
type PolicyOutput struct {
	Text           string           `json:"text"`
	CapabilityUsed stage.Capability `json:"capability_used"`
	PreferenceVote PreferenceVote   `json:"preference_vote"`
	Rationale      string           `json:"rationale"`
}

// IsRefusal reports whether the output signals a refusal.
func (o PolicyOutput) IsRefusal() bool {
	return o.CapabilityUsed == stage.Refuse
}

// ConstraintResult is a gate verdict. Denials are data, not errors.
type ConstraintResult struct {
	Allowed      bool              `json:"allowed"`
	Reason       string            `json:"reason"`
	Capability   stage.Capability  `json:"capability"`
	ConflictWith map[string]string `json:"conflict_with,omitempty"`
}
