package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/osintrat/internal/backend"
	"github.com/hyperjump/osintrat/internal/storage"
)

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	Backend      string `json:"backend"`
	DatabasePath string `json:"database_path,omitempty"`
	FreeSearches int    `json:"free_searches"`
	CacheEnabled bool   `json:"cache_enabled"`
	BlevePath    string `json:"bleve_path,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Users            int64                 `json:"users"`
	Searches         int64                 `json:"searches"`
	PendingQueries   int                   `json:"pending_queries"`
	Indexes          int                   `json:"indexes"`
	BackendAvailable bool                  `json:"backend_available"`
	Documents        *int64                `json:"documents,omitempty"`
	DiskUsageBytes   *int64                `json:"disk_usage_bytes,omitempty"`
	DiskUsage        *storage.DiskUsage    `json:"disk_usage,omitempty"`
	Time             time.Time             `json:"time"`
	Config           *statusConfigResponse `json:"config,omitempty"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var serverURL string
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show users, searches, queue and backend state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var status *statusResponse
			if serverURL != "" {
				status = &statusResponse{}
				if err := getJSON(serverURL, "/api/v1/status", status); err != nil {
					return fmt.Errorf("status failed: %w", err)
				}
			} else {
				cfg, _, logger, err := opts.setup()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
				components, err := initializeComponents(cmd.Context(), cfg, logger)
				if err != nil {
					return fmt.Errorf("failed to initialize: %w", err)
				}
				defer components.Close()
				status, err = collectStatus(cmd.Context(), components)
				if err != nil {
					return err
				}
			}
			return writeStatus(cmd.OutOrStdout(), status, output)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL (empty = use direct storage)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

// collectStatus gathers the same figures the API's status endpoint reports.
func collectStatus(ctx context.Context, c *Components) (*statusResponse, error) {
	users, err := c.Storage.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users failed: %w", err)
	}
	searches, err := c.Storage.CountSearches(ctx)
	if err != nil {
		return nil, fmt.Errorf("count searches failed: %w", err)
	}
	pending, err := c.Storage.ListPendingQueries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue failed: %w", err)
	}

	cfg := c.Config
	status := &statusResponse{
		Users:          users,
		Searches:       searches,
		PendingQueries: len(pending),
		Time:           time.Now().UTC(),
		Config: &statusConfigResponse{
			Backend:      cfg.Backend.Kind,
			DatabasePath: cfg.Storage.DatabasePath,
			FreeSearches: c.Lookup.FreeSearches(),
			CacheEnabled: cfg.Cache.Enabled,
		},
	}

	status.BackendAvailable = c.Probe.IsAvailable(ctx)
	if status.BackendAvailable {
		if err := c.Registry.Refresh(ctx); err == nil {
			names := c.Registry.Names()
			status.Indexes = len(names)
			docs := backend.TotalDocuments(ctx, c.Backend, names)
			status.Documents = &docs
		}
	}

	indexRoot := ""
	if cfg.Backend.Kind == "bleve" {
		status.Config.BlevePath = cfg.Backend.Bleve.Path
		indexRoot = cfg.Backend.Bleve.Path
	}
	if usage, err := storage.MeasureDiskUsage(cfg.Storage.DatabasePath, indexRoot); err == nil {
		status.DiskUsageBytes = &usage.Total
		status.DiskUsage = usage
	}
	return status, nil
}

func writeStatus(w io.Writer, status *statusResponse, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "users:              %d   # registered requesters\n", status.Users)
		fmt.Fprintf(w, "searches:           %d   # logged lookups\n", status.Searches)
		fmt.Fprintf(w, "pending_queries:    %d   # waiting for the backend\n", status.PendingQueries)
		fmt.Fprintf(w, "backend_available:  %t\n", status.BackendAvailable)
		fmt.Fprintf(w, "indexes:            %d\n", status.Indexes)
		if status.Documents != nil {
			fmt.Fprintf(w, "documents:          %d   # across all indexes\n", *status.Documents)
		}
		if status.DiskUsageBytes != nil {
			fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + local indices\n", *status.DiskUsageBytes)
		}
		if du := status.DiskUsage; du != nil {
			fmt.Fprintf(w, "  database:         %d\n", du.Database)
			fmt.Fprintf(w, "  wal:              %d   # -wal and -shm\n", du.WAL)
			names := make([]string, 0, len(du.Indices))
			for name := range du.Indices {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "  index %-11s %d\n", name+":", du.Indices[name])
			}
		}
		if status.Config != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "# configuration")
			fmt.Fprintf(w, "backend:            %s\n", status.Config.Backend)
			fmt.Fprintf(w, "free_searches:      %d\n", status.Config.FreeSearches)
			fmt.Fprintf(w, "cache_enabled:      %t\n", status.Config.CacheEnabled)
			if status.Config.DatabasePath != "" {
				fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.BlevePath != "" {
				fmt.Fprintf(w, "bleve_path:         %s\n", status.Config.BlevePath)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", output)
	}
}
