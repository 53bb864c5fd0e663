// Package session threads one run through the decision cycle:
// parse → decide → classify → append.
package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/pida/internal/eventlog"
	"github.com/ppiankov/pida/internal/memory"
	"github.com/ppiankov/pida/internal/model"
	"github.com/ppiankov/pida/internal/policy"
	"github.com/ppiankov/pida/internal/stage"
)

// Turn is the result of one decision cycle.
type Turn struct {
	Request model.Request          `json:"request"`
	Gate    model.ConstraintResult `json:"gate"`
	Output  model.PolicyOutput     `json:"output"`
	Kind    model.EventKind        `json:"kind"`
	TraceID string                 `json:"trace_id"`
}

// Reply renders the line shown to the user for this turn.
func (t Turn) Reply() string {
	if !t.Gate.Allowed && !t.Output.IsRefusal() {
		return fmt.Sprintf("REFUSAL (%s)", t.Gate.Reason)
	}
	return t.Output.Text
}

// Options configures Open.
type Options struct {
	RunsDir string
	RunID   string
	Stage   stage.Stage
	Logger  *zap.Logger
}

// Session is the explicit handle for one run. It is not safe for
// concurrent use; a run has one active writer.
type Session struct {
	Run    eventlog.Run
	State  stage.State
	Memory *memory.Store

	log    *eventlog.Log
	logger *zap.Logger
}

// New builds a session over an existing memory store. Nothing is opened
// on disk; Events falls back to the in-memory view.
func New(st stage.State, mem *memory.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{State: st, Memory: mem, logger: logger}
}

// Open creates or resumes a run on disk and loads its history.
func Open(opts Options) (*Session, error) {
	if !opts.Stage.Valid() {
		return nil, fmt.Errorf("session: %w: %d", stage.ErrUnknownStage, int(opts.Stage))
	}

	run, err := eventlog.EnsureRun(opts.RunsDir, opts.RunID)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	log, err := eventlog.Open(run.LogPath)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	mem, err := memory.Load(log, run.LogPath)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("session: %w", err)
	}

	s := New(stage.State{Stage: opts.Stage}, mem, opts.Logger)
	s.Run = run
	s.log = log
	s.logger = s.logger.With(zap.String("run_id", run.ID))
	s.logger.Info("run opened",
		zap.String("stage", opts.Stage.String()),
		zap.Int("history", mem.Len()),
		zap.String("log", run.LogPath))
	return s, nil
}

// Handle runs one decision cycle for raw input. An error means the event
// could not be persisted and the cycle must be treated as failed.
func (s *Session) Handle(input string) (Turn, error) {
	req := policy.ParseRequest(input)
	gate, out := policy.Decide(s.State, s.Memory, req)

	kind, trace, err := Record(s.Memory, req, gate, out)
	if err != nil {
		s.logger.Error("append failed", zap.Error(err))
		return Turn{}, err
	}

	turn := Turn{
		Request: req,
		Gate:    gate,
		Output:  out,
		Kind:    kind,
		TraceID: trace,
	}

	s.logger.Debug("decision",
		zap.String("trace_id", trace),
		zap.String("kind", string(kind)),
		zap.String("capability", string(out.CapabilityUsed)),
		zap.String("vote", string(out.PreferenceVote)),
		zap.String("reason", gate.Reason))
	if kind == model.KindRefusal {
		s.logger.Warn("refused", zap.String("trace_id", trace), zap.String("reason", gate.Reason))
	}
	return turn, nil
}

// Events returns the run's full record sequence as persisted, or the
// in-memory view for sessions without a log file.
func (s *Session) Events() ([]eventlog.Event, error) {
	if s.Run.LogPath == "" {
		return s.Memory.Events(), nil
	}
	return eventlog.ReadAll(s.Run.LogPath)
}

// Close releases the run log.
func (s *Session) Close() error {
	if s.log == nil {
		return nil
	}
	err := s.log.Close()
	s.log = nil
	if err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	return nil
}
