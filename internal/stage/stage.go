package stage

import (
	"errors"
	"fmt"
)

// ErrUnknownStage is returned for stage values outside the defined four.
var ErrUnknownStage = errors.New("unknown stage")

// Stage is the ordinal development level. Higher stages hold a strict
// superset of the capabilities of lower ones.
type Stage int

const (
	Existence    Stage = 0
	CausalMemory Stage = 1
	Preference   Stage = 2
	Consistency  Stage = 3
)

// Min and Max bound the defined stages.
const (
	Min = Existence
	Max = Consistency
)

func (s Stage) String() string {
	switch s {
	case Existence:
		return "STAGE_0_EXISTENCE"
	case CausalMemory:
		return "STAGE_1_CAUSAL_MEMORY"
	case Preference:
		return "STAGE_2_PREFERENCE"
	case Consistency:
		return "STAGE_3_CONSISTENCY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Valid reports whether s is one of the four defined stages.
func (s Stage) Valid() bool {
	return s >= Min && s <= Max
}

// Parse converts an integer into a Stage, rejecting values outside 0..3.
func Parse(n int) (Stage, error) {
	s := Stage(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStage, n)
	}
	return s, nil
}

// Clamp forces n into the defined range.
func Clamp(n int) Stage {
	if n < int(Min) {
		return Min
	}
	if n > int(Max) {
		return Max
	}
	return Stage(n)
}

// State is the development state threaded through every decision.
type State struct {
	Stage Stage `json:"stage" yaml:"stage"`
}

// Can reports whether the state's stage grants the capability.
func (st State) Can(c Capability) bool {
	return Can(st.Stage, c)
}
