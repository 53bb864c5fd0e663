package policy

import (
	"fmt"

	"github.com/ppiankov/pida/internal/model"
	"github.com/ppiankov/pida/internal/stage"
)

// Gate reasons.
const (
	ReasonStageOK = "stage_ok"
)

// StageGate wraps the capability table into a gate verdict.
func StageGate(st stage.State, c stage.Capability) model.ConstraintResult {
	if st.Can(c) {
		return model.ConstraintResult{Allowed: true, Reason: ReasonStageOK, Capability: c}
	}
	return model.ConstraintResult{
		Allowed:    false,
		Reason:     fmt.Sprintf("stage_denied: %s lacks %s", st.Stage, c),
		Capability: c,
	}
}
