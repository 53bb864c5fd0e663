package replay

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatSummary renders a summary as text.
func FormatSummary(runID string, s Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Run: %s | %d events\n", runID, s.TotalEvents))

	kinds := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s.Counts[k]))
	}
	if len(parts) == 0 {
		parts = append(parts, "none")
	}
	b.WriteString("Counts: " + strings.Join(parts, ", ") + "\n")
	b.WriteString(fmt.Sprintf("Votes: efficiency=%d safety=%d neutral=%d\n",
		s.PreferenceVotes.Efficiency, s.PreferenceVotes.Safety, s.PreferenceVotes.Neutral))
	return b.String()
}

// FormatTimeline renders every event of a result followed by its summary.
func FormatTimeline(r *Result) string {
	if len(r.Events) == 0 {
		return fmt.Sprintf("Run: %s | No events found.\n", r.RunID)
	}

	var b strings.Builder
	first := r.Events[0].Time().Format("2006-01-02 15:04:05")
	last := r.Events[len(r.Events)-1].Time().Format("15:04:05")
	b.WriteString(fmt.Sprintf("Run: %s | %s–%s UTC\n", r.RunID, first, last))
	b.WriteString(separator + "\n")

	for _, ev := range r.Events {
		capability, _ := ev.Meta["capability"].(string)
		vote, _ := ev.Meta["preference_vote"].(string)
		b.WriteString(fmt.Sprintf("%-10s %-9s %-10s %-26s %-11s %s\n",
			ev.Time().Format("15:04:05"),
			ev.Type,
			truncate(ev.TraceID, 10),
			capability,
			vote,
			truncate(requestText(ev.Content), 40)))
	}

	b.WriteString(separator + "\n")
	b.WriteString(FormatSummary(r.RunID, r.Summary))
	return b.String()
}

// FormatJSON renders any replay value as indented JSON.
func FormatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func requestText(content map[string]any) string {
	switch req := content["request"].(type) {
	case map[string]any:
		text, _ := req["text"].(string)
		return text
	case string:
		return req
	default:
		return ""
	}
}

// truncate cuts on rune boundaries so multi-byte text stays valid.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
