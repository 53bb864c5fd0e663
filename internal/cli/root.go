package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/pida/internal/config"
	"github.com/ppiankov/pida/internal/logging"
	"github.com/ppiankov/pida/internal/stage"
)

var (
	configPath string
	stageFlag  int
	runsDir    string
	logLevel   string
	runID      string

	cfg    *config.Config
	logger = zap.NewNop()
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config YAML (default ~/.pida/config.yaml)")
	pf.IntVar(&stageFlag, "stage", int(stage.Max), "Development stage 0-3, clamped")
	pf.StringVar(&runsDir, "runs-dir", "", "Directory holding one subdirectory per run")
	pf.StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug|info|warn|error)")
	pf.StringVar(&runID, "run", "", "Run id to continue (a new run is created if omitted)")

	rootCmd.Flags().BoolVar(&chatReplay, "replay", false, "Print the run summary and exit")
}

var rootCmd = &cobra.Command{
	Use:   "pida",
	Short: "Staged, rule-based decision agent with an auditable event log",
	Long: "Answers requests under a four-level development stage. Every decision\n" +
		"is appended to the run's event log, and logged preference votes feed\n" +
		"back into later decisions. Without a subcommand, starts the chat loop.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
	RunE:              runChat,
}

// loadSettings resolves config file, environment and flags, in that
// order of increasing precedence, and builds the diagnostic logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("stage") {
		c.Stage = stageFlag
	}
	if flags.Changed("runs-dir") {
		c.RunsDir = runsDir
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	c.Stage = int(c.StageValue())

	l, err := logging.New(logging.Options{
		Level: c.Log.Level,
		File:  c.Log.File,
	})
	if err != nil {
		return err
	}

	cfg = c
	logger = l
	return nil
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
