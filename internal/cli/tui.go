package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SincereJuliya/chatbotgermano/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the full-screen terminal viewer",
	Long: `Open the full-screen terminal viewer.

Keys:
  tab        move focus between chats, citations and the input box
  enter      open the selected chat or citation, send the typed message
  n, ctrl+n  start a new chat
  esc, q     close the citation details
  pgup/pgdn  scroll the transcript
  ctrl+c     quit

Logs go to the log file (GERMANO_LOG_FILE) while the viewer runs.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting terminal viewer", "api_url", cfg.APIURL)
	err := tui.Run(ctx, engine)
	logStats(logger, collector.Snapshot())
	return err
}
