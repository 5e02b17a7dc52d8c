package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/config"
	"github.com/hyperjump/osintrat/internal/server"
	"github.com/hyperjump/osintrat/internal/storage"
	"github.com/hyperjump/osintrat/internal/watcher"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the deferred queue worker",
		Long: `Start the HTTP API, drain the deferred queue on a timer, and reload the
quota and index list when the config file (or the bleve index directory) changes.

Only one serve process may use a database at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, resolvedConfigPath, logger, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.DatabasePath != ":memory:" {
		lock := storage.NewInstanceLock(cfg.Storage.DatabasePath)
		if err := lock.Acquire(); err != nil {
			return fmt.Errorf("%w (%s)", err, lock.Path())
		}
		defer func() { _ = lock.Release() }()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Close()

	if err := components.Registry.Refresh(ctx); err != nil {
		logger.Warn("initial index refresh failed; lookups report it until the next reload", zap.Error(err))
	}

	watchPaths := []string{resolvedConfigPath}
	if cfg.Backend.Kind == "bleve" {
		watchPaths = append(watchPaths, cfg.Backend.Bleve.Path)
	}
	watchSvc := watcher.NewWatcher(watchPaths, func(path string) {
		components.applyChange(ctx, path, resolvedConfigPath)
	}, watcher.WithLogger(logger))
	if err := watchSvc.Start(ctx); err != nil {
		logger.Warn("config watcher disabled", zap.Error(err))
	}
	defer watchSvc.Stop()

	go components.Queue.Run(ctx)

	srv := server.NewServer(server.Deps{
		Lookup:   components.Lookup,
		Queue:    components.Queue,
		Registry: components.Registry,
		Probe:    components.Probe,
		Backend:  components.Backend,
		Storage:  components.Storage,
	}, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// applyChange reacts to a watched path changing. A config change re-reads the free
// search allowance; any change refreshes the index registry.
func (c *Components) applyChange(ctx context.Context, path, configPath string) {
	if abs, err := filepath.Abs(configPath); err == nil && filepath.Clean(path) == abs {
		cfg, err := config.Load(configPath)
		if err != nil {
			c.logger.Warn("config reload failed", zap.String("path", configPath), zap.Error(err))
		} else {
			c.Lookup.SetFreeSearches(cfg.Quota.FreeSearches)
			c.logger.Info("config reloaded", zap.Int("free_searches", cfg.Quota.FreeSearches))
		}
	}
	if err := c.Registry.Refresh(ctx); err != nil {
		c.logger.Warn("index refresh after change failed", zap.String("path", path), zap.Error(err))
	}
}
