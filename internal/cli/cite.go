package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SincereJuliya/chatbotgermano/internal/cache"
	"github.com/SincereJuliya/chatbotgermano/internal/viewer"
)

var citeCmd = &cobra.Command{
	Use:   "cite <citation-id>",
	Short: "Show the documents behind a citation",
	Long: `Resolve a citation ID and print its source documents.

Examples:
  germano cite c1
  germano transcript 6f1c2a && germano cite c1`,
	Args: cobra.ExactArgs(1),
	RunE: runCite,
}

func runCite(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	modal, err := viewer.Modal{}.Open(id)
	if err != nil {
		return err
	}
	docs, err := engine.ResolveDocuments(ctx, cache.New(cache.WithMetrics(collector)), id)
	if err != nil {
		return fmt.Errorf("resolve citation %q: %w", id, err)
	}
	if modal, err = modal.Resolve(docs); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), newRenderer().Modal(modal))
	return nil
}
