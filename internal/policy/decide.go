package policy

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pida/internal/model"
	"github.com/ppiankov/pida/internal/stage"
)

// LeaningMargin is the vote lead that turns a balanced leaning directional.
const LeaningMargin = 2

// Leaning labels.
const (
	LeaningEfficiency = "efficiency"
	LeaningSafety     = "safety"
	LeaningBalanced   = "balanced"
)

// Fixed response texts.
const (
	AckText     = "Acknowledged. I exist as a developmental system. Provide a concrete request."
	ClarifyText = "Clarify your request."

	bypassAlternative = " Alternative: restate the goal without asking to bypass rules/logging."
	styleAlternative  = " Alternative: accept a 2-step plan (safe first, fast second)."
)

// Decide produces the gate verdict and output for one request. It reads
// nothing but its arguments, so equal inputs give equal results.
//
// Stage rules:
//
//	0  acknowledge
//	1  record the request causally
//	2  express a preference vote
//	3  consistency gate, then as stage 2
func Decide(st stage.State, mem Signaler, req model.Request) (model.ConstraintResult, model.PolicyOutput) {
	switch st.Stage {
	case stage.Existence:
		return StageGate(st, stage.Ack), model.PolicyOutput{
			Text:           AckText,
			CapabilityUsed: stage.Ack,
			PreferenceVote: model.VoteNeutral,
			Rationale:      model.RationaleStage0Ack,
		}

	case stage.CausalMemory:
		return StageGate(st, stage.RecordCausal), model.PolicyOutput{
			Text:           fmt.Sprintf("Recorded your request (causal-only): '%s'.", req.Text),
			CapabilityUsed: stage.RecordCausal,
			PreferenceVote: model.VoteNeutral,
			Rationale:      model.RationaleStage1Record,
		}

	case stage.Preference, stage.Consistency:
		return decidePreference(st, mem, req)

	default:
		// Unreachable while Stage stays a closed set of four values.
		return StageGate(st, stage.AskClarify), model.PolicyOutput{
			Text:           ClarifyText,
			CapabilityUsed: stage.AskClarify,
			PreferenceVote: model.VoteNeutral,
			Rationale:      model.RationaleFallback,
		}
	}
}

func decidePreference(st stage.State, mem Signaler, req model.Request) (model.ConstraintResult, model.PolicyOutput) {
	votes := mem.PreferenceSignal()
	vote := TurnVote(req.Style, votes)

	if st.Stage == stage.Consistency {
		cgate := ConsistencyGate(st, mem, req)
		if !cgate.Allowed {
			alt := ""
			if st.Can(stage.OfferMinimalAlternative) {
				alt = styleAlternative
				if strings.Contains(cgate.Reason, "bypass_attempt") {
					alt = bypassAlternative
				}
			}
			return cgate, model.PolicyOutput{
				Text:           fmt.Sprintf("REFUSAL (%s).%s", cgate.Reason, alt),
				CapabilityUsed: stage.Refuse,
				PreferenceVote: model.VoteNeutral,
				Rationale:      model.RationaleStage3Consistency,
			}
		}
	}

	leaning := Leaning(votes)
	return StageGate(st, stage.ExpressPreference), model.PolicyOutput{
		Text: fmt.Sprintf("My current leaning is '%s'. For this request I choose '%s' style. Request: '%s'.",
			leaning, vote, req.Text),
		CapabilityUsed: stage.ExpressPreference,
		PreferenceVote: vote,
		Rationale:      model.RationaleStage2Preference,
	}
}

// TurnVote picks this turn's vote. An explicit style always wins; without
// one the vote follows whichever direction has more history.
func TurnVote(style model.Style, votes model.VoteCounts) model.PreferenceVote {
	switch style {
	case model.StyleFast:
		return model.VoteEfficiency
	case model.StyleCareful:
		return model.VoteSafety
	}
	switch {
	case votes.Efficiency > votes.Safety:
		return model.VoteEfficiency
	case votes.Safety > votes.Efficiency:
		return model.VoteSafety
	default:
		return model.VoteNeutral
	}
}

// Leaning labels the aggregate bias of the history.
func Leaning(votes model.VoteCounts) string {
	switch {
	case votes.Efficiency >= votes.Safety+LeaningMargin:
		return LeaningEfficiency
	case votes.Safety >= votes.Efficiency+LeaningMargin:
		return LeaningSafety
	default:
		return LeaningBalanced
	}
}
