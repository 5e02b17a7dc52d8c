package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/osintrat/data/bot_database.db"
	}
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = "meili"
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = "http://localhost:7700"
	}
	if cfg.Backend.Bleve.Path == "" {
		cfg.Backend.Bleve.Path = "/usr/local/var/osintrat/data/indices"
	}
	if cfg.Backend.Bleve.Filterable == nil {
		cfg.Backend.Bleve.Filterable = []string{"username", "email", "account_id", "phone"}
	}
	if cfg.Search.MaxParallel == 0 {
		cfg.Search.MaxParallel = 8
	}
	if cfg.Search.IndexTimeout == 0 {
		cfg.Search.IndexTimeout = 5 * time.Second
	}
	if cfg.Search.HealthTimeout == 0 {
		cfg.Search.HealthTimeout = 2 * time.Second
	}
	if cfg.Search.NameLimit == 0 {
		cfg.Search.NameLimit = 200
	}
	if cfg.Search.FilterLimit == 0 {
		cfg.Search.FilterLimit = 100
	}
	if cfg.Search.ScanLimit == 0 {
		cfg.Search.ScanLimit = 200
	}
	if cfg.Queue.Interval == 0 {
		cfg.Queue.Interval = 60 * time.Second
	}
	if cfg.Queue.DeliveryDelay == 0 {
		cfg.Queue.DeliveryDelay = 500 * time.Millisecond
	}
	if cfg.Quota.FreeSearches == 0 {
		cfg.Quota.FreeSearches = 50
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "osintrat"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 30 * time.Second
	}
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = "https://api.telegram.org"
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = "txt"
	}
}
