package stage

import (
	"errors"
	"testing"
)

func TestCapabilitySetsMatchTable(t *testing.T) {
	tests := []struct {
		stage Stage
		want  []Capability
	}{
		{Existence, []Capability{Ack, AskClarify, Refuse}},
		{CausalMemory, []Capability{Ack, AskClarify, RecordCausal, Refuse}},
		{Preference, []Capability{Ack, AskClarify, ExpressPreference, RecordCausal, Refuse}},
		{Consistency, []Capability{Ack, AskClarify, EnforceConsistency, ExpressPreference, OfferMinimalAlternative, RecordCausal, Refuse}},
	}

	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			got, err := Capabilities(tt.stage)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d capabilities, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("capability %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestStageMonotonicity(t *testing.T) {
	all, _ := Capabilities(Max)
	for s := Min; s <= Max; s++ {
		for _, c := range all {
			if !Can(s, c) {
				continue
			}
			for higher := s + 1; higher <= Max; higher++ {
				if !Can(higher, c) {
					t.Errorf("%s grants %s but %s does not", s, c, higher)
				}
			}
		}
	}
}

func TestHigherStageIsStrictSuperset(t *testing.T) {
	for s := Min; s < Max; s++ {
		lower, _ := Capabilities(s)
		upper, _ := Capabilities(s + 1)
		if len(upper) <= len(lower) {
			t.Errorf("%s (%d caps) is not a strict superset of %s (%d caps)", s+1, len(upper), s, len(lower))
		}
	}
}

func TestCanIsPure(t *testing.T) {
	for i := 0; i < 100; i++ {
		if !Can(Consistency, EnforceConsistency) {
			t.Fatal("expected enforce_consistency at stage 3")
		}
		if Can(Existence, RecordCausal) {
			t.Fatal("expected record_causal denied at stage 0")
		}
	}
}

func TestUnknownCapabilityDenied(t *testing.T) {
	for s := Min; s <= Max; s++ {
		if Can(s, Capability("launch_rocket")) {
			t.Errorf("%s granted unknown capability", s)
		}
	}
}

func TestUnmappedStageFailsClosed(t *testing.T) {
	if Can(Stage(7), Ack) {
		t.Error("expected unmapped stage to deny every capability")
	}
	if _, err := Capabilities(Stage(7)); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage, got %v", err)
	}
}

func TestParseAndClamp(t *testing.T) {
	if _, err := Parse(4); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage for 4, got %v", err)
	}
	if s, err := Parse(2); err != nil || s != Preference {
		t.Errorf("expected Preference, got %v (%v)", s, err)
	}

	tests := []struct {
		in   int
		want Stage
	}{
		{-5, Existence},
		{0, Existence},
		{1, CausalMemory},
		{3, Consistency},
		{99, Consistency},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestStageString(t *testing.T) {
	if Existence.String() != "STAGE_0_EXISTENCE" {
		t.Errorf("unexpected name %q", Existence.String())
	}
	if Stage(9).String() != "UNKNOWN(9)" {
		t.Errorf("unexpected name %q", Stage(9).String())
	}
}

func TestStateCan(t *testing.T) {
	st := State{Stage: Preference}
	if !st.Can(ExpressPreference) {
		t.Error("expected express_preference at stage 2")
	}
	if st.Can(EnforceConsistency) {
		t.Error("expected enforce_consistency denied at stage 2")
	}
}
