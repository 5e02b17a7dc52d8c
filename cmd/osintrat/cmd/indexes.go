package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type indexesResponse struct {
	Indexes     []string         `json:"indexes"`
	Count       int              `json:"count"`
	RefreshedAt time.Time        `json:"refreshed_at"`
	Documents   map[string]int64 `json:"documents,omitempty"`
}

func newIndexesCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	var reload bool
	var output string

	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "List the indexes lookups fan out over",
		Long: `List the indexes lookups fan out over.

With --server the running server's snapshot is shown; --reload makes it
re-list the backend first. Without --server the backend is listed directly,
with per-index document counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp indexesResponse
			if serverURL != "" {
				path := "/api/v1/indexes"
				var err error
				if reload {
					err = postJSON(serverURL, path+"/reload", &resp)
				} else {
					err = getJSON(serverURL, path, &resp)
				}
				if err != nil {
					return fmt.Errorf("indexes failed: %w", err)
				}
			} else {
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
					return err
				}
				names := components.Registry.Names()
				resp = indexesResponse{
					Indexes:     names,
					Count:       len(names),
					RefreshedAt: components.Registry.RefreshedAt(),
					Documents:   make(map[string]int64, len(names)),
				}
				for _, name := range names {
					n, err := components.Backend.DocumentCount(ctx, name)
					if err != nil {
						logger.Warn("document count failed", zap.String("index", name), zap.Error(err))
						continue
					}
					resp.Documents[name] = n
				}
			}
			return writeIndexes(cmd.OutOrStdout(), &resp, output)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL (empty = list the backend directly)")
	cmd.Flags().BoolVar(&reload, "reload", false, "ask the server to re-list the backend's indexes")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func writeIndexes(w io.Writer, resp *indexesResponse, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "text":
		for _, name := range resp.Indexes {
			if n, ok := resp.Documents[name]; ok {
				fmt.Fprintf(w, "%-30s %d\n", name, n)
				continue
			}
			fmt.Fprintln(w, name)
		}
		fmt.Fprintf(w, "%d indexes", resp.Count)
		if !resp.RefreshedAt.IsZero() {
			fmt.Fprintf(w, " (refreshed %s)", resp.RefreshedAt.Format(time.RFC3339))
		}
		fmt.Fprintln(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", output)
	}
}
