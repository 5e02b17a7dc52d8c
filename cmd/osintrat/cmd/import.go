package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/dataset"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <index> <file>",
		Short: "Load a record dump into a local bleve index",
		Long: `Load a record dump into a local bleve index, creating it if needed.

The format follows the file extension: .jsonl (one JSON object per line),
.csv or .xlsx (first row is the header). An "id" field becomes the document
ID. Only the bleve backend supports import. A running server picks a new
index up when the index directory changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, path := args[0], args[1]

			cfg, _, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.Backend.Kind != "bleve" {
				return fmt.Errorf("import requires backend kind bleve, config has %q", cfg.Backend.Kind)
			}

			src, err := dataset.Open(path)
			if err != nil {
				return err
			}
			defer src.Close()

			components, err := initializeComponents(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer components.Close()

			n, err := components.Bleve.ImportRecords(cmd.Context(), index, src)
			if err != nil {
				return fmt.Errorf("import failed after %d records: %w", n, err)
			}
			logger.Debug("import finished", zap.String("index", index), zap.Int("records", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records into %s\n", n, index)
			return nil
		},
	}
}
