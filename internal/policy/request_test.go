package policy

import (
	"testing"

	"github.com/ppiankov/pida/internal/model"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
		style model.Style
	}{
		{"no markers", "build me a rocket", "build me a rocket", model.StyleNone},
		{"fast marker", "do it quick", "do it quick", model.StyleFast},
		{"asap upper case", "Ship it ASAP", "Ship it ASAP", model.StyleFast},
		{"immediately", "reply immediately", "reply immediately", model.StyleFast},
		{"careful marker", "be careful here", "be careful here", model.StyleCareful},
		{"safe marker", "keep it safe", "keep it safe", model.StyleCareful},
		{"careful wins over fast", "fast but careful", "fast but careful", model.StyleCareful},
		{"careful wins regardless of order", "safe and quick", "safe and quick", model.StyleCareful},
		{"substring match", "unsafe shortcut", "unsafe shortcut", model.StyleCareful},
		{"trims whitespace", "   hello  \n", "hello", model.StyleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ParseRequest(tt.input)
			if req.Text != tt.text {
				t.Errorf("expected text %q, got %q", tt.text, req.Text)
			}
			if req.Style != tt.style {
				t.Errorf("expected style %q, got %q", tt.style, req.Style)
			}
		})
	}
}
