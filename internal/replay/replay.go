package replay

import (
	"fmt"
	"time"

	"github.com/ppiankov/pida/internal/eventlog"
	"github.com/ppiankov/pida/internal/model"
)

// Summary is the aggregate audit view of an event sequence.
type Summary struct {
	TotalEvents     int              `json:"total_events"`
	Counts          map[string]int   `json:"counts"`
	PreferenceVotes model.VoteCounts `json:"preference_votes"`
}

// Summarize folds events into counts per type and the CHOICE vote tally.
// Every type, unrecognized or empty, is counted under its literal name;
// records read without a type arrive as eventlog.UnknownType. It has no side
// effects, so equal inputs always give equal summaries.
func Summarize(events []eventlog.Event) Summary {
	s := Summary{
		TotalEvents: len(events),
		Counts:      map[string]int{},
	}
	for _, ev := range events {
		kind := ev.Type
		s.Counts[kind]++
		if kind == string(model.KindChoice) {
			s.PreferenceVotes.Add(ev.Meta["preference_vote"])
		}
	}
	return s
}

// Window restricts a replay to a time range. Zero bounds are open.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// Filter returns the events inside the window, order preserved.
func Filter(events []eventlog.Event, w Window) []eventlog.Event {
	if w.From.IsZero() && w.To.IsZero() {
		return events
	}
	var out []eventlog.Event
	for _, ev := range events {
		if w.Contains(ev.Time()) {
			out = append(out, ev)
		}
	}
	return out
}

// Result holds a replayed run.
type Result struct {
	RunID   string           `json:"run_id"`
	Summary Summary          `json:"summary"`
	Events  []eventlog.Event `json:"events,omitempty"`
}

// Run reads a run log, applies the window and summarizes what remains.
func Run(runID, path string, w Window) (*Result, error) {
	events, err := eventlog.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}
	events = Filter(events, w)
	return &Result{
		RunID:   runID,
		Summary: Summarize(events),
		Events:  events,
	}, nil
}
