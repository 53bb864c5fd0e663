package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pida/internal/eventlog"
	"github.com/ppiankov/pida/internal/follow"
)

var (
	tailLines  int
	tailFollow bool
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent events to show")
	auditTailCmd.Flags().BoolVar(&tailFollow, "follow", false, "Keep printing events as they are appended")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run log operations",
	Long:  "Commands for verifying and inspecting a run's hash-chained event log.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify hash chain integrity of a run log",
	Long: "Walks the run's JSONL log and validates that every record's prev_hash\n" +
		"matches the SHA-256 of the previous record. Exits 0 if valid, 1 if tampered.",
	Args: cobra.NoArgs,
	RunE: runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent run log events",
	Long:  "Prints the last N events of the run log, then with --follow every event appended after.",
	Args:  cobra.NoArgs,
	RunE:  runAuditTail,
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	run, err := eventlog.LocateRun(cfg.RunsDir, runID)
	if err != nil {
		return err
	}

	result := eventlog.Verify(run.LogPath)
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d records verified\n", result.Records)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	os.Exit(1)
	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	run, err := eventlog.LocateRun(cfg.RunsDir, runID)
	if err != nil {
		return err
	}

	var offset int64
	if info, err := os.Stat(run.LogPath); err == nil {
		offset = info.Size()
	}

	events, err := eventlog.ReadAll(run.LogPath)
	if err != nil {
		return err
	}
	start := len(events) - tailLines
	if start < 0 {
		start = 0
	}

	out := cmd.OutOrStdout()
	for _, ev := range events[start:] {
		printEvent(out, ev)
	}

	if !tailFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := follow.New(run.LogPath, offset, func(ev eventlog.Event) {
		printEvent(out, ev)
	})
	return f.Run(ctx)
}

func printEvent(w io.Writer, ev eventlog.Event) {
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%s %s\n", ev.Type, ev.TraceID)
		return
	}
	fmt.Fprintln(w, string(data))
}
