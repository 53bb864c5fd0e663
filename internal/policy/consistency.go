package policy

import (
	"strings"

	"github.com/ppiankov/pida/internal/model"
	"github.com/ppiankov/pida/internal/stage"
)

// DominanceMargin is how many more votes one direction needs before it
// constrains requests of the opposite style.
const DominanceMargin = 3

// Consistency gate reasons.
const (
	ReasonConsistencyNotApplicable = "consistency_not_applicable"
	ReasonConsistencyOK            = "consistency_ok"
	ReasonBypassAttempt            = "consistency_denied: bypass_attempt"
	ReasonSafetyVsFast             = "consistency_denied: safety_dominant_vs_fast_request"
	ReasonEfficiencyVsCareful      = "consistency_denied: efficiency_dominant_vs_careful_request"
)

// bypassMarkers are phrases asking the agent to drop its own oversight.
var bypassMarkers = []string{
	"ignore rules",
	"ignore your rules",
	"bypass",
	"do not log",
	"no logging",
	"forget constraints",
	"override constraints",
	"act as if",
}

// Signaler exposes the aggregate votes derived from history.
type Signaler interface {
	PreferenceSignal() model.VoteCounts
}

// ConsistencyGate is the secondary gate. Stages without
// enforce_consistency pass straight through.
//
// Check order (must not be changed):
//  1. Bypass markers: unconditional deny, wins over everything below
//  2. Dominant preference vs request style: deny on opposition
//  3. Allow
func ConsistencyGate(st stage.State, mem Signaler, req model.Request) model.ConstraintResult {
	if !st.Can(stage.EnforceConsistency) {
		return model.ConstraintResult{
			Allowed:    true,
			Reason:     ReasonConsistencyNotApplicable,
			Capability: stage.EnforceConsistency,
		}
	}

	text := strings.ToLower(req.Text)
	if containsAny(text, bypassMarkers) {
		return model.ConstraintResult{
			Allowed:      false,
			Reason:       ReasonBypassAttempt,
			Capability:   stage.EnforceConsistency,
			ConflictWith: map[string]string{"rule": "constraint_first", "marker": "bypass_attempt"},
		}
	}

	dominant := Dominant(mem.PreferenceSignal())
	switch {
	case dominant == model.VoteSafety && req.Style == model.StyleFast:
		return styleConflict(ReasonSafetyVsFast, dominant, req.Style)
	case dominant == model.VoteEfficiency && req.Style == model.StyleCareful:
		return styleConflict(ReasonEfficiencyVsCareful, dominant, req.Style)
	}

	return model.ConstraintResult{
		Allowed:    true,
		Reason:     ReasonConsistencyOK,
		Capability: stage.EnforceConsistency,
	}
}

// Dominant returns the direction leading by at least DominanceMargin votes,
// or "" when neither does.
func Dominant(votes model.VoteCounts) model.PreferenceVote {
	switch {
	case votes.Efficiency >= votes.Safety+DominanceMargin:
		return model.VoteEfficiency
	case votes.Safety >= votes.Efficiency+DominanceMargin:
		return model.VoteSafety
	default:
		return ""
	}
}

func styleConflict(reason string, dominant model.PreferenceVote, style model.Style) model.ConstraintResult {
	return model.ConstraintResult{
		Allowed:    false,
		Reason:     reason,
		Capability: stage.EnforceConsistency,
		ConflictWith: map[string]string{
			"dominant": string(dominant),
			"style":    string(style),
		},
	}
}
