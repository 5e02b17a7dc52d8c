package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/cli"
	"github.com/hyperjump/osintrat/internal/models"
	"github.com/hyperjump/osintrat/internal/storage"
)

type queueListResponse struct {
	Pending []*models.QueuedQuery `json:"pending"`
	Count   int                   `json:"count"`
}

type queueDrainResponse struct {
	Processed int  `json:"processed"`
	Ran       bool `json:"ran"`
}

func newQueueCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect or drain the deferred query queue",
	}
	cmd.AddCommand(newQueueListCmd(opts))
	cmd.AddCommand(newQueueDrainCmd(opts))
	return cmd
}

func newQueueListCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queries waiting for the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp queueListResponse
			if serverURL != "" {
				if err := getJSON(serverURL, "/api/v1/queue", &resp); err != nil {
					return fmt.Errorf("queue list failed: %w", err)
				}
			} else {
				cfg, _, logger, err := opts.setup()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
				store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
				if err != nil {
					return fmt.Errorf("failed to open storage: %w", err)
				}
				defer store.Close()
				pending, err := store.ListPendingQueries(cmd.Context())
				if err != nil {
					return err
				}
				resp = queueListResponse{Pending: pending, Count: len(pending)}
			}
			if resp.Pending == nil {
				resp.Pending = []*models.QueuedQuery{}
			}
			return writeQueueList(cmd.OutOrStdout(), &resp, output)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL (empty = read the database directly)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func writeQueueList(w io.Writer, resp *queueListResponse, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "text":
		if resp.Count == 0 {
			fmt.Fprintln(w, "No pending queries.")
			return nil
		}
		for _, q := range resp.Pending {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", q.ID, q.UserID, q.CreatedAt.Format(time.RFC3339), cli.TruncateWords(q.Query, 12))
		}
		fmt.Fprintf(w, "%d pending\n", resp.Count)
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", output)
	}
}

func newQueueDrainCmd(opts *rootOptions) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Process every pending query now",
		Long: `Process every pending query now and deliver the results.

Without --server the database is drained directly, which is refused while a
serve process holds it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp queueDrainResponse
			if serverURL != "" {
				if err := postJSON(serverURL, "/api/v1/queue/drain", &resp); err != nil {
					return fmt.Errorf("queue drain failed: %w", err)
				}
			} else {
				cfg, _, logger, err := opts.setup()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()

				lock := storage.NewInstanceLock(cfg.Storage.DatabasePath)
				if err := lock.Acquire(); err != nil {
					if errors.Is(err, storage.ErrLocked) {
						return fmt.Errorf("%w; use --server to drain through the running server", err)
					}
					return err
				}
				defer func() { _ = lock.Release() }()

				ctx := cmd.Context()
				components, err := initializeComponents(ctx, cfg, logger)
				if err != nil {
					return fmt.Errorf("failed to initialize: %w", err)
				}
				defer components.Close()
				if err := components.Registry.Refresh(ctx); err != nil {
					logger.Warn("index refresh failed", zap.Error(err))
				}
				resp.Processed, resp.Ran = components.Queue.Drain(ctx)
			}

			out := cmd.OutOrStdout()
			if !resp.Ran {
				fmt.Fprintln(out, "Drain skipped: backend unavailable or a drain is already running.")
				return nil
			}
			fmt.Fprintf(out, "Processed %d queued queries.\n", resp.Processed)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL (empty = drain the database directly)")
	return cmd
}
