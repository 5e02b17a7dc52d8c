package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BOT_TOKEN", "CLIENT_URL", "MEILI_API_KEY", "REDIS_URL", "ADMIN_IDS"} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
backend:
  url: "http://meili:7700"
queue:
  interval: 15s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Backend.URL != "http://meili:7700" {
		t.Errorf("backend url = %s", cfg.Backend.URL)
	}
	if cfg.Queue.Interval != 15*time.Second {
		t.Errorf("queue interval = %s, want 15s", cfg.Queue.Interval)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLIENT_URL", "http://env-meili:7700")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "1, 2,,3")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
backend:
  url: "http://file-meili:7700"
admin_ids: [9]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.URL != "http://env-meili:7700" {
		t.Errorf("backend url = %s, want env value", cfg.Backend.URL)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("telegram token = %q", cfg.Telegram.Token)
	}
	if len(cfg.AdminIDs) != 3 || !cfg.IsAdmin(2) || cfg.IsAdmin(9) {
		t.Errorf("admin ids = %v", cfg.AdminIDs)
	}
}

func TestLoad_invalidAdminIDs(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_IDS", "1,x")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed ADMIN_IDS")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/bot_database.db"
backend:
  kind: bleve
  bleve:
    path: "./data/indices"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "bot_database.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantIdx := filepath.Join(dir, "data", "indices")
	if cfg.Backend.Bleve.Path != wantIdx {
		t.Errorf("bleve path = %s, want %s", cfg.Backend.Bleve.Path, wantIdx)
	}
}

func TestLoad_memoryDatabaseIsKept(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  database_path: \":memory:\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DatabasePath != ":memory:" {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Backend.Kind != "meili" {
		t.Errorf("default backend kind: got %s", cfg.Backend.Kind)
	}
	if cfg.Search.HealthTimeout != 2*time.Second {
		t.Errorf("default health timeout: got %s", cfg.Search.HealthTimeout)
	}
	if cfg.Search.NameLimit != 200 || cfg.Search.FilterLimit != 100 || cfg.Search.ScanLimit != 200 {
		t.Errorf("default limits: got %+v", cfg.Search)
	}
	if cfg.Queue.Interval != time.Minute {
		t.Errorf("default queue interval: got %s", cfg.Queue.Interval)
	}
	if cfg.Queue.DeliveryDelay != 500*time.Millisecond {
		t.Errorf("default delivery delay: got %s", cfg.Queue.DeliveryDelay)
	}
	if cfg.Quota.FreeSearches != 50 {
		t.Errorf("default free searches: got %d", cfg.Quota.FreeSearches)
	}
	if len(cfg.Backend.Bleve.Filterable) != 4 {
		t.Errorf("default filterable fields: got %v", cfg.Backend.Bleve.Filterable)
	}
	if cfg.Report.Format != "txt" {
		t.Errorf("default report format: got %s", cfg.Report.Format)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("OSINTRAT_TEST_VAR", "")
	os.Unsetenv("OSINTRAT_TEST_VAR")
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("OSINTRAT_TEST_VAR=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("OSINTRAT_TEST_VAR"); got != "from-file" {
		t.Errorf("OSINTRAT_TEST_VAR = %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing files should be skipped, got %v", err)
	}
}
