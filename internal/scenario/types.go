package scenario

// Expect lists the assertions for one turn. Empty fields are not checked.
type Expect struct {
	Allowed    *bool  `yaml:"allowed,omitempty"`
	Kind       string `yaml:"kind,omitempty"`
	Capability string `yaml:"capability,omitempty"`
	Vote       string `yaml:"vote,omitempty"`
	Reason     string `yaml:"reason,omitempty"`
	TextPrefix string `yaml:"text_prefix,omitempty"`
}

// Turn is one input and what the agent must do with it.
type Turn struct {
	Input  string `yaml:"input"`
	Expect Expect `yaml:"expect"`
}

// History seeds prior CHOICE votes before the first turn.
type History struct {
	Efficiency int `yaml:"efficiency"`
	Safety     int `yaml:"safety"`
	Neutral    int `yaml:"neutral"`
}

// Scenario is a named, ordered conversation at a fixed stage. Turns share
// one memory, so earlier turns feed later decisions.
type Scenario struct {
	Name    string  `yaml:"name"`
	Stage   int     `yaml:"stage"`
	History History `yaml:"history"`
	Turns   []Turn  `yaml:"turns"`
}

// TurnResult is the outcome of evaluating one turn.
type TurnResult struct {
	Index      int      `json:"index"`
	Input      string   `json:"input"`
	Passed     bool     `json:"passed"`
	Reply      string   `json:"reply"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// RunResult is the outcome of running all turns in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Turns  []TurnResult `json:"turns"`
}
