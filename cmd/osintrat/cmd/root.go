// Package cmd provides the CLI commands for osintrat.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/config"
	"github.com/hyperjump/osintrat/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/osintrat/config.yaml"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCmd creates the root command for the osintrat CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "osintrat",
		Short: "Identity lookup service over hosted search indexes",
		Long: `osintrat classifies a query (username, email, account id, phone or name),
fans it out over every index of the search backend and reports the matching records.

Lookups that arrive while the backend is down are queued and delivered later.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("osintrat version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newQueueCmd(opts))
	cmd.AddCommand(newIndexesCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A .env file next to the config, or in the current directory, is loaded first.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	resolved := path
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				resolved = fallback
			}
		}
	}
	if err := config.LoadDotEnv(filepath.Join(filepath.Dir(resolved), ".env"), ".env"); err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(resolved)
	if err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

// setup loads the config and builds the logger for a subcommand.
func (o *rootOptions) setup() (*config.Config, string, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(o.configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || o.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode),
	)
	return cfg, resolved, logger, nil
}
