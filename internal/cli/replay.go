package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pida/internal/eventlog"
	"github.com/ppiankov/pida/internal/replay"
)

var (
	replayFrom     string
	replayTo       string
	replayFormat   string
	replayTimeline bool
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayFrom, "from", "", "Start time filter (RFC3339)")
	replayCmd.Flags().StringVar(&replayTo, "to", "", "End time filter (RFC3339)")
	replayCmd.Flags().StringVarP(&replayFormat, "format", "f", "text", "Output format (text|json)")
	replayCmd.Flags().BoolVar(&replayTimeline, "timeline", false, "Print every event before the summary")
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Summarize a run from its event log",
	Long: "Reads the run's event log, optionally restricted to a time range,\n" +
		"and prints per-type counts and preference vote totals.",
	Args: cobra.NoArgs,
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	run, err := eventlog.LocateRun(cfg.RunsDir, runID)
	if err != nil {
		return err
	}

	var window replay.Window
	if replayFrom != "" {
		from, err := time.Parse(time.RFC3339, replayFrom)
		if err != nil {
			return fmt.Errorf("invalid --from time %q: %w", replayFrom, err)
		}
		window.From = from
	}
	if replayTo != "" {
		to, err := time.Parse(time.RFC3339, replayTo)
		if err != nil {
			return fmt.Errorf("invalid --to time %q: %w", replayTo, err)
		}
		window.To = to
	}

	result, err := replay.Run(run.ID, run.LogPath, window)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch replayFormat {
	case "json":
		var v any = result.Summary
		if replayTimeline {
			v = result
		}
		s, err := replay.FormatJSON(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	default:
		if replayTimeline {
			fmt.Fprint(out, replay.FormatTimeline(result))
		} else {
			fmt.Fprint(out, replay.FormatSummary(result.RunID, result.Summary))
		}
	}
	return nil
}
