// Package config provides configuration loading and structs for the osintrat service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Backend  BackendConfig  `yaml:"backend"`
	Search   SearchConfig   `yaml:"search"`
	Queue    QueueConfig    `yaml:"queue"`
	Quota    QuotaConfig    `yaml:"quota"`
	Cache    CacheConfig    `yaml:"cache"`
	Telegram TelegramConfig `yaml:"telegram"`
	Report   ReportConfig   `yaml:"report"`
	AdminIDs []int64        `yaml:"admin_ids"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds the path of the SQLite database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// BackendConfig selects and configures the search backend.
type BackendConfig struct {
	// Kind is "meili" (hosted Meilisearch), "elastic" (Elasticsearch cluster) or "bleve" (local index directory).
	Kind   string      `yaml:"kind"`
	URL    string      `yaml:"url"`
	APIKey string      `yaml:"api_key"`
	Bleve  BleveConfig `yaml:"bleve"`
}

// BleveConfig holds settings for the local Bleve backend.
type BleveConfig struct {
	Path       string   `yaml:"path"`
	Filterable []string `yaml:"filterable"`
}

// SearchConfig holds fan-out and probe settings.
type SearchConfig struct {
	MaxParallel   int           `yaml:"max_parallel"`
	IndexTimeout  time.Duration `yaml:"index_timeout"`
	HealthTimeout time.Duration `yaml:"health_timeout"`
	NameLimit     int           `yaml:"name_limit"`
	FilterLimit   int           `yaml:"filter_limit"`
	ScanLimit     int           `yaml:"scan_limit"`
}

// QueueConfig holds deferred queue settings.
type QueueConfig struct {
	Interval      time.Duration `yaml:"interval"`
	DeliveryDelay time.Duration `yaml:"delivery_delay"`
}

// QuotaConfig holds per-user search allowances.
type QuotaConfig struct {
	FreeSearches int `yaml:"free_searches"`
}

// CacheConfig holds the optional Redis result cache settings.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	RedisURL string        `yaml:"redis_url"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// TelegramConfig holds Bot API delivery settings. An empty token disables delivery.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

// ReportConfig selects the results file format ("txt" or "xlsx").
type ReportConfig struct {
	Format string `yaml:"format"`
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Backend.Bleve.Path = expandPath(cfg.Backend.Bleve.Path, configDir)

	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Missing files are skipped; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("CLIENT_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("MEILI_API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_IDS: %w", err)
		}
		cfg.AdminIDs = ids
	}
	return nil
}

// IsAdmin reports whether id is listed in admin_ids.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
