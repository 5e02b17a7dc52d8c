package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/cli"
	"github.com/hyperjump/osintrat/internal/models"
	"github.com/hyperjump/osintrat/internal/report"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var searchType string
	var output string
	var reportDir string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Look a query up across every index",
		Long: `Classify the query and search every index of the configured backend.

The query is all remaining arguments joined by spaces. The type is detected
automatically unless --type is given. No user quota applies.`,
		Example: `  osintrat search @jsmith
  osintrat search john smith --output compact
  osintrat search --type phone "+1 555 123 4567" --report ./out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query is empty")
			}
			t, err := models.ParseSearchType(searchType)
			if err != nil {
				return err
			}
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}

			cfg, _, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer components.Close()

			if err := components.Registry.Refresh(ctx); err != nil {
				logger.Debug("index refresh failed", zap.Error(err))
			}
			result := components.Engine.Search(ctx, query, t)
			if err := cli.WriteSearchResults(cmd.OutOrStdout(), result, format); err != nil {
				return fmt.Errorf("output failed: %w", err)
			}

			if reportDir != "" && result.Success {
				data, name, err := report.Render(result, cfg.Report.Format)
				if err != nil {
					return fmt.Errorf("render report: %w", err)
				}
				if err := os.MkdirAll(reportDir, 0755); err != nil {
					return fmt.Errorf("create report directory: %w", err)
				}
				path := filepath.Join(reportDir, name)
				if err := os.WriteFile(path, data, 0644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
			}
			if !result.Success {
				return fmt.Errorf("search failed: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&searchType, "type", "t", "", "search type: username, email, account_id, phone or name (default: detect)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, compact or json")
	cmd.Flags().StringVar(&reportDir, "report", "", "also write the results file (txt or xlsx, per config) into this directory")

	return cmd
}
