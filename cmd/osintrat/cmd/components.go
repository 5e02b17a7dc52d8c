package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/backend"
	"github.com/hyperjump/osintrat/internal/cache"
	"github.com/hyperjump/osintrat/internal/config"
	"github.com/hyperjump/osintrat/internal/lookup"
	"github.com/hyperjump/osintrat/internal/notify"
	"github.com/hyperjump/osintrat/internal/queue"
	"github.com/hyperjump/osintrat/internal/search"
	"github.com/hyperjump/osintrat/internal/storage"
)

const memoryCacheSize = 1024

// Components holds the wired application services.
type Components struct {
	Config   *config.Config
	Storage  *storage.SQLiteStorage
	Backend  backend.Backend
	Bleve    *backend.BleveBackend
	Registry *search.Registry
	Probe    *search.Probe
	Cache    cache.ResultCache
	Engine   *search.Engine
	Notifier notify.Notifier
	Queue    *queue.Manager
	Lookup   *lookup.Service
	logger   *zap.Logger
}

// initializeComponents opens storage and the search backend and wires the services
// on top of them. The index registry is not refreshed here.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Config: cfg, logger: logger}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	c.Storage = store

	var registryOpts []search.RegistryOption
	registryOpts = append(registryOpts, search.WithRegistryLogger(logger))
	switch cfg.Backend.Kind {
	case "meili":
		client, err := backend.NewMeiliClient(cfg.Backend.URL, backend.WithAPIKey(cfg.Backend.APIKey))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Backend = client
		registryOpts = append(registryOpts, search.WithRefreshHook(client.ResetFilterableCache))
	case "bleve":
		b, err := backend.NewBleveBackend(cfg.Backend.Bleve.Path, cfg.Backend.Bleve.Filterable)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Backend = b
		c.Bleve = b
	case "elastic":
		es, err := backend.NewElasticBackend([]string{cfg.Backend.URL}, cfg.Backend.APIKey)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Backend = es
	default:
		c.Close()
		return nil, fmt.Errorf("unknown backend kind %q; use meili, bleve or elastic", cfg.Backend.Kind)
	}

	c.Registry = search.NewRegistry(c.Backend, registryOpts...)
	c.Probe = search.NewProbe(c.Backend, cfg.Search.HealthTimeout, logger)

	engineOpts := []search.Option{search.WithLogger(logger)}
	if cfg.Cache.Enabled {
		c.Cache = newResultCache(ctx, &cfg.Cache, logger)
		engineOpts = append(engineOpts, search.WithCache(c.Cache, cfg.Cache.Prefix, cfg.Cache.TTL))
	}
	c.Engine = search.NewEngine(c.Backend, c.Registry, &cfg.Search, engineOpts...)

	if cfg.Telegram.Token != "" {
		n, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.APIURL, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Notifier = n
	} else {
		logger.Warn("no telegram token configured; deliveries are logged only")
		c.Notifier = notify.NewLogNotifier(logger)
	}

	c.Queue = queue.NewManager(c.Storage, c.Engine, c.Probe, c.Notifier, &cfg.Queue, cfg.Report.Format, logger)
	c.Lookup = lookup.NewService(c.Storage, c.Engine, c.Probe, c.Queue, cfg.Quota.FreeSearches, logger)
	return c, nil
}

// newResultCache connects to Redis when a URL is configured and falls back to an
// in-process cache otherwise or when Redis is unreachable.
func newResultCache(ctx context.Context, cfg *config.CacheConfig, logger *zap.Logger) cache.ResultCache {
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("result cache: redis")
			return rc
		}
		logger.Warn("redis unavailable, using in-memory result cache", zap.Error(err))
	}
	return cache.NewMemoryCache(memoryCacheSize, cfg.TTL)
}

// Close releases the cache, backend and storage.
func (c *Components) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil && c.logger != nil {
			c.logger.Warn("cache close failed", zap.Error(err))
		}
	}
	if c.Bleve != nil {
		if err := c.Bleve.Close(); err != nil && c.logger != nil {
			c.logger.Warn("bleve close failed", zap.Error(err))
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil && c.logger != nil {
			c.logger.Warn("storage close failed", zap.Error(err))
		}
	}
}
