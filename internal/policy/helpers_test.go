package policy

import "github.com/ppiankov/pida/internal/model"

// fixedVotes is a Signaler returning a constant tally.
type fixedVotes model.VoteCounts

func (v fixedVotes) PreferenceSignal() model.VoteCounts {
	return model.VoteCounts(v)
}

func history(eff, saf int) fixedVotes {
	return fixedVotes{Efficiency: eff, Safety: saf}
}
