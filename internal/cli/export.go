package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pida/internal/archive"
	"github.com/ppiankov/pida/internal/eventlog"
)

var exportDB string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDB, "db", "", "SQLite database path (default <runs-dir>/runs.db)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy a run's events into a SQLite database",
	Long: "Inserts every event of the run into the events table. Events already\n" +
		"exported are skipped, so repeated exports only add new records.",
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	run, err := eventlog.LocateRun(cfg.RunsDir, runID)
	if err != nil {
		return err
	}
	events, err := eventlog.ReadAll(run.LogPath)
	if err != nil {
		return err
	}

	dbPath := exportDB
	if dbPath == "" {
		dbPath = filepath.Join(cfg.RunsDir, "runs.db")
	}
	a, err := archive.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	inserted, err := a.Export(ctx, run.ID, events)
	if err != nil {
		return err
	}
	counts, err := a.CountByType(ctx, run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %d new of %d events from %s to %s\n", inserted, len(events), run.ID, dbPath)
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-10s %d\n", k, counts[k])
	}
	return nil
}
