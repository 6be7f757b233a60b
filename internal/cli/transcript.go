package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <session-id>",
	Short: "Print the transcript of a chat session",
	Long: `Print every message of a chat session with its citation markers.

Citation IDs printed under a message can be passed to "germano cite".
Output is plain text when stdout is not a terminal.

Examples:
  germano transcript 6f1c2a
  germano transcript 6f1c2a | less`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscript,
}

var sendCmd = &cobra.Command{
	Use:   "send <session-id> <message>",
	Short: "Send a message to a chat session",
	Long: `Send a user message and print the messages added by the exchange.

Examples:
  germano send 6f1c2a "Was ist die Hauptstadt?"
  germano send 6f1c2a Wie geht es dir`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

// openSession loads the session list and selects id.
func openSession(ctx context.Context, id string, warn io.Writer) (viewer.State, error) {
	st := engine.Apply(ctx, engine.NewState(), viewer.LoadSessions{})
	if err := noticeError(st); err != nil {
		return st, err
	}
	st = engine.Apply(ctx, st, viewer.SelectSession{ID: id})
	if err := noticeError(st); err != nil {
		return st, err
	}
	printWarnings(warn, st)
	if st.ActiveSessionID != id {
		return st, fmt.Errorf("chat %q not found", id)
	}
	return st, nil
}

func runTranscript(cmd *cobra.Command, args []string) error {
	st, err := openSession(context.Background(), args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(st.Messages) == 0 {
		fmt.Fprintln(out, "No messages in this chat yet.")
		return nil
	}
	fmt.Fprintln(out, newRenderer().Transcript(st.Messages))
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openSession(ctx, args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	before := len(st.Messages)

	text := strings.Join(args[1:], " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("message is empty")
	}
	st = engine.Apply(ctx, st, viewer.SubmitMessage{Text: text})
	if err := noticeError(st); err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), st)

	if before < len(st.Messages) {
		fmt.Fprintln(cmd.OutOrStdout(), newRenderer().Transcript(st.Messages[before:]))
	}
	return nil
}

// noticeError turns the first error notice of st into an error.
func noticeError(st viewer.State) error {
	for _, n := range st.Notices {
		if n.Level == viewer.NoticeError {
			return errors.New(n.Text)
		}
	}
	return nil
}

func printWarnings(w io.Writer, st viewer.State) {
	for _, n := range st.Notices {
		if n.Level == viewer.NoticeWarning {
			fmt.Fprintf(w, "Warning: %s\n", n.Text)
		}
	}
}
