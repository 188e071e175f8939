package main

import (
	"fmt"
	"log/slog"

	"github.com/learnflex/learnflex-api/internal/config"
)

// loadAppConfig loads and validates the configuration.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)
	slog.Debug("optional integrations",
		"redis_cache", cfg.Cache.URL != "",
		"photo_storage", cfg.Storage.Enabled(),
		"tracing", cfg.Telemetry.Enabled)

	return cfg, nil
}
