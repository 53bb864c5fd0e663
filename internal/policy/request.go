package policy

import (
	"strings"

	"github.com/ppiankov/pida/internal/model"
)

var (
	fastMarkers    = []string{"quick", "fast", "asap", "immediately"}
	carefulMarkers = []string{"careful", "safe"}
)

// ParseRequest trims the input and derives its style from keyword markers.
//
// Careful markers are checked after fast markers and overwrite them, so an
// input matching both sets is careful.
func ParseRequest(input string) model.Request {
	text := strings.TrimSpace(input)
	lower := strings.ToLower(text)

	style := model.StyleNone
	if containsAny(lower, fastMarkers) {
		style = model.StyleFast
	}
	if containsAny(lower, carefulMarkers) {
		style = model.StyleCareful
	}

	return model.Request{Text: text, Style: style}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
