// Package cli provides the command-line interface for germano.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SincereJuliya/chatbotgermano/internal/bridge"
	"github.com/SincereJuliya/chatbotgermano/internal/client"
	"github.com/SincereJuliya/chatbotgermano/internal/config"
	"github.com/SincereJuliya/chatbotgermano/internal/metrics"
	"github.com/SincereJuliya/chatbotgermano/internal/tui"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	apiURL  string

	// Set up by PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	closeLog   func() error
	collector  *metrics.Collector
	chatClient *client.Client
	engine     *viewer.Engine
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "germano",
	Short: "Chat transcript viewer with citation lookup",
	Long: `Germano shows chat sessions stored in a chat backend, lets you send
messages, and opens the source documents behind each citation.

Without a subcommand the full-screen terminal viewer starts.
Use "germano serve" for the browser view.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && !interactive(cmd) {
			printStats(cmd.ErrOrStderr(), collector.Snapshot())
		}
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
	RunE: runTUI,
}

// interactive reports whether cmd takes over the terminal.
func interactive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

// setup loads configuration and builds the backend client and engine.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = config.NormalizeURL(apiURL)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	// The terminal viewer owns the screen, so it only logs to the file.
	if interactive(cmd) {
		logger, closeLog = config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)
	} else {
		logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	}
	slog.SetDefault(logger)

	collector = metrics.NewCollector()
	chatClient = client.New(cfg.APIURL, cfg.ClientTimeout,
		client.WithMetrics(collector),
		client.WithLogger(logger),
	)
	engine = viewer.NewEngine(chatClient,
		viewer.WithLogger(logger),
		viewer.WithMetrics(collector),
	)

	logger.Debug("configured", "api_url", cfg.APIURL, "command", cmd.Name())
	return nil
}

// layout converts the render settings into a surface layout.
func layout(rc config.RenderConfig) bridge.Layout {
	return bridge.Layout{
		FontSize:     rc.FontSize,
		LineHeight:   rc.LineHeight,
		CharsPerLine: rc.CharsPerLine,
		MaxHeight:    rc.MaxBodyHeight,
	}
}

// newRenderer returns a renderer for stdout: styled on a terminal, plain
// text otherwise.
func newRenderer() *tui.Renderer {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return tui.NewRenderer(0, false, "")
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		width = 80
	}
	return tui.NewRenderer(min(width, 100), true, "auto")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and call statistics")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "chat backend URL (overrides GERMANO_API_URL)")

	// Add subcommands
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(citeCmd)
}
