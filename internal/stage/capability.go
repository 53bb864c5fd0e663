package stage

import (
	"fmt"
	"sort"
)

// Capability is a named permission a policy action requires.
type Capability string

const (
	Ack                     Capability = "ack"
	AskClarify              Capability = "ask_clarify"
	Refuse                  Capability = "refuse"
	RecordCausal            Capability = "record_causal"
	ExpressPreference       Capability = "express_preference"
	EnforceConsistency      Capability = "enforce_consistency"
	OfferMinimalAlternative Capability = "offer_minimal_alternative"
)

// capabilitySets is the fixed stage → capability table. Each row must
// contain every capability of the row before it.
var capabilitySets = map[Stage]map[Capability]bool{
	Existence: {
		Ack: true, AskClarify: true, Refuse: true,
	},
	CausalMemory: {
		Ack: true, AskClarify: true, Refuse: true,
		RecordCausal: true,
	},
	Preference: {
		Ack: true, AskClarify: true, Refuse: true,
		RecordCausal:      true,
		ExpressPreference: true,
	},
	Consistency: {
		Ack: true, AskClarify: true, Refuse: true,
		RecordCausal:            true,
		ExpressPreference:       true,
		EnforceConsistency:      true,
		OfferMinimalAlternative: true,
	},
}

// Can reports whether stage s grants capability c.
// Unknown capabilities and unmapped stages are denied (fail-closed).
func Can(s Stage, c Capability) bool {
	set, ok := capabilitySets[s]
	if !ok {
		return false
	}
	return set[c]
}

// Capabilities returns the sorted capability set of a stage.
func Capabilities(s Stage) ([]Capability, error) {
	set, ok := capabilitySets[s]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no capability set", ErrUnknownStage, s)
	}
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
