package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/pida/internal/replay"
	"github.com/ppiankov/pida/internal/session"
	"github.com/ppiankov/pida/internal/stage"
)

var chatReplay bool

// maxRequestSize bounds one input line of the chat loop.
const maxRequestSize = 1024 * 1024

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatReplay, "replay", false, "Print the run summary and exit")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive decision loop",
	Long: "Opens (or resumes with --run) a run and reads one request per line.\n" +
		"'exit' or 'quit' ends the loop; 'replay' prints the run summary.",
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	sess, err := session.Open(session.Options{
		RunsDir: cfg.RunsDir,
		RunID:   runID,
		Stage:   stage.Stage(cfg.Stage),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	out := cmd.OutOrStdout()
	if chatReplay {
		return printSummary(out, sess)
	}

	fmt.Fprintf(out, "RUN: %s | STAGE: %s\n", sess.Run.ID, sess.State.Stage)
	fmt.Fprintln(out, "Type 'exit' to quit. Type 'replay' to show summary.")
	fmt.Fprintln(out, strings.Repeat("-", 60))

	return chatLoop(os.Stdin, out, sess)
}

// chatLoop reads requests until EOF or an exit command. An append
// failure ends the loop with an error.
func chatLoop(in io.Reader, out io.Writer, sess *session.Session) error {
	refusal := color.New(color.FgRed, color.Bold)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)

	for {
		fmt.Fprint(out, "You> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		switch strings.ToLower(text) {
		case "exit", "quit":
			return nil
		case "replay":
			if err := printSummary(out, sess); err != nil {
				return err
			}
			continue
		}

		turn, err := sess.Handle(text)
		if err != nil {
			return err
		}

		reply := turn.Reply()
		if strings.HasPrefix(reply, "REFUSAL") {
			reply = refusal.Sprint(reply)
		}
		fmt.Fprintf(out, "PIDA> %s [trace:%s]\n", reply, turn.TraceID)
	}
}

func printSummary(out io.Writer, sess *session.Session) error {
	events, err := sess.Events()
	if err != nil {
		return err
	}
	fmt.Fprint(out, replay.FormatSummary(sess.Run.ID, replay.Summarize(events)))
	return nil
}
