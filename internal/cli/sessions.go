package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"ls"},
	Short:   "List chat sessions",
	Long: `List chat sessions known to the backend, one per line as "ID  TITLE".

Examples:
  germano sessions
  germano ls --api-url http://backend:8000`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a chat session",
	Long: `Create an empty chat session and print its ID.

Examples:
  germano new
  id=$(germano new) && germano send "$id" "Hallo"`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st := engine.Apply(ctx, engine.NewState(), viewer.LoadSessions{})
	if err := noticeError(st); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(st.Sessions) == 0 {
		fmt.Fprintln(out, "No chats yet.")
		return nil
	}
	for _, s := range st.Sessions {
		fmt.Fprintf(out, "%s  %s\n", s.ID, s.DisplayTitle())
	}
	return nil
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	session, err := chatClient.CreateSession(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), session.ID)
	logger.Debug("created session", "id", session.ID, "title", session.DisplayTitle())
	return nil
}
