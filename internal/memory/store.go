// Package memory is the in-process view over a run's event log that
// feeds past decisions back into the policy.
//
// Memory is not knowledge: only choices, refusals, conflicts and delays
// are kept, and the preference signal is always a full re-scan of them.
package memory

import (
	"errors"
	"fmt"

	"github.com/ppiankov/pida/internal/eventlog"
	"github.com/ppiankov/pida/internal/model"
)

// ErrInvalidKind is returned by Add for kinds outside model.MemoryKinds.
var ErrInvalidKind = errors.New("invalid memory event kind")

// Appender persists one record and returns it with its generated trace id.
// *eventlog.Log and *eventlog.Buffer satisfy it.
type Appender interface {
	Append(kind string, content, meta map[string]any) (eventlog.Event, error)
}

// Store mirrors every accepted record in append order.
type Store struct {
	log    Appender
	events []eventlog.Event
}

// New builds a store over log, seeded with history. Records of kinds the
// store does not accept are left out of the view.
func New(log Appender, history []eventlog.Event) *Store {
	s := &Store{log: log}
	for _, ev := range history {
		if model.EventKind(ev.Type).IsMemoryKind() {
			s.events = append(s.events, ev)
		}
	}
	return s
}

// Load reads the run log at path and builds a store that appends to log.
func Load(log Appender, path string) (*Store, error) {
	history, err := eventlog.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("memory: load: %w", err)
	}
	return New(log, history), nil
}

// Add validates the kind, persists the record and mirrors it in memory.
// Nothing is mirrored when the append fails.
func (s *Store) Add(kind model.EventKind, content, meta map[string]any) (string, error) {
	if !kind.IsMemoryKind() {
		return "", fmt.Errorf("memory: %w: %q", ErrInvalidKind, kind)
	}

	ev, err := s.log.Append(string(kind), content, meta)
	if err != nil {
		return "", fmt.Errorf("memory: add %s: %w", kind, err)
	}

	s.events = append(s.events, ev)
	return ev.TraceID, nil
}

// PreferenceSignal tallies meta.preference_vote over every CHOICE event.
// Unrecognized vote values are ignored.
func (s *Store) PreferenceSignal() model.VoteCounts {
	var votes model.VoteCounts
	for _, ev := range s.events {
		if ev.Type != string(model.KindChoice) {
			continue
		}
		votes.Add(ev.Meta["preference_vote"])
	}
	return votes
}

// Events returns a copy of the mirrored records.
func (s *Store) Events() []eventlog.Event {
	out := make([]eventlog.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of mirrored records.
func (s *Store) Len() int {
	return len(s.events)
}
