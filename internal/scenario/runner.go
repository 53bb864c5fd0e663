package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/pida/internal/eventlog"
	"github.com/ppiankov/pida/internal/memory"
	"github.com/ppiankov/pida/internal/model"
	"github.com/ppiankov/pida/internal/session"
	"github.com/ppiankov/pida/internal/stage"
)

// Run plays every turn of a scenario against a fresh in-process log.
func Run(s *Scenario) (*RunResult, error) {
	st, err := stage.Parse(s.Stage)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	mem := memory.New(eventlog.NewBuffer(), nil)
	if err := seed(mem, s.History); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	sess := session.New(stage.State{Stage: st}, mem, nil)

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Turns),
	}

	for i, turn := range s.Turns {
		got, err := sess.Handle(turn.Input)
		if err != nil {
			return nil, fmt.Errorf("scenario %q turn %d: %w", s.Name, i+1, err)
		}

		tr := TurnResult{
			Index:      i + 1,
			Input:      turn.Input,
			Reply:      got.Reply(),
			Mismatches: check(turn.Expect, got),
		}
		if len(tr.Mismatches) == 0 {
			tr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}
		result.Turns = append(result.Turns, tr)
	}

	return result, nil
}

// LoadAndRun loads a scenario YAML file and runs it.
func LoadAndRun(path string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	result, err := Run(&s)
	if err != nil {
		return nil, err
	}
	result.File = path
	return result, nil
}

func seed(mem *memory.Store, h History) error {
	votes := []struct {
		vote  model.PreferenceVote
		count int
	}{
		{model.VoteEfficiency, h.Efficiency},
		{model.VoteSafety, h.Safety},
		{model.VoteNeutral, h.Neutral},
	}
	for _, v := range votes {
		for i := 0; i < v.count; i++ {
			_, err := mem.Add(model.KindChoice,
				map[string]any{"seeded": true},
				map[string]any{"preference_vote": string(v.vote)})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func check(e Expect, got session.Turn) []string {
	var mismatches []string
	mismatch := func(field, want, actual string) {
		mismatches = append(mismatches, fmt.Sprintf("%s: expected %s, got %s", field, want, actual))
	}

	if e.Allowed != nil && *e.Allowed != got.Gate.Allowed {
		mismatch("allowed", fmt.Sprint(*e.Allowed), fmt.Sprint(got.Gate.Allowed))
	}
	if e.Kind != "" && !strings.EqualFold(e.Kind, string(got.Kind)) {
		mismatch("kind", e.Kind, string(got.Kind))
	}
	if e.Capability != "" && e.Capability != string(got.Output.CapabilityUsed) {
		mismatch("capability", e.Capability, string(got.Output.CapabilityUsed))
	}
	if e.Vote != "" && e.Vote != string(got.Output.PreferenceVote) {
		mismatch("vote", e.Vote, string(got.Output.PreferenceVote))
	}
	if e.Reason != "" && e.Reason != got.Gate.Reason {
		mismatch("reason", e.Reason, got.Gate.Reason)
	}
	if e.TextPrefix != "" && !strings.HasPrefix(got.Reply(), e.TextPrefix) {
		mismatch("text_prefix", fmt.Sprintf("%q", e.TextPrefix), fmt.Sprintf("%q", got.Reply()))
	}
	return mismatches
}
