// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

// Package config loads the service configuration from three layers with
// increasing precedence: built-in defaults, an optional YAML file, and
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/songifi/lyricsflip-store-sub000/internal/recommend"
)

// ConfigPathEnvVar points at an explicit config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"/etc/lyricsflip/config.yaml",
}

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file, or ":memory:" for an in-memory store.
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RecommendConfig holds the engine tuning knobs exposed to operators.
// The similarity weights themselves are deliberately not configurable
// here; they are part of the scoring model, not deployment tuning.
type RecommendConfig struct {
	HistoryWindow     int           `koanf:"history_window"`
	MaxGenres         int           `koanf:"max_genres"`
	MaxArtists        int           `koanf:"max_artists"`
	WeightedAveraging bool          `koanf:"weighted_averaging"`
	MaxCandidates     int           `koanf:"max_candidates"`
	DefaultLimit      int           `koanf:"default_limit"`
	MaxLimit          int           `koanf:"max_limit"`
	ScoreWorkers      int           `koanf:"score_workers"`
	FetchTimeout      time.Duration `koanf:"fetch_timeout"`
	CacheEnabled      bool          `koanf:"cache_enabled"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries   int           `koanf:"cache_max_entries"`
}

// SecurityConfig holds the HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins           []string      `koanf:"cors_origins"`
	RateLimitRequests     int           `koanf:"rate_limit_requests"`
	RateLimitWindow       time.Duration `koanf:"rate_limit_window"`
	FeedbackRatePerMinute int           `koanf:"feedback_rate_per_minute"`
}

func defaultConfig() Config {
	engine := recommend.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "./data/lyricsflip.db",
			MaxMemory:    "1GB",
			Threads:      4,
			MaxOpenConns: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			HistoryWindow:     engine.Profile.HistoryWindow,
			MaxGenres:         engine.Profile.MaxGenres,
			MaxArtists:        engine.Profile.MaxArtists,
			WeightedAveraging: engine.Profile.WeightedAveraging,
			MaxCandidates:     engine.Limits.MaxCandidates,
			DefaultLimit:      engine.Limits.DefaultLimit,
			MaxLimit:          engine.Limits.MaxLimit,
			ScoreWorkers:      engine.Limits.ScoreWorkers,
			FetchTimeout:      engine.Limits.FetchTimeout,
			CacheEnabled:      engine.Cache.Enabled,
			CacheTTL:          engine.Cache.TTL,
			CacheMaxEntries:   engine.Cache.MaxEntries,
		},
		Security: SecurityConfig{
			CORSOrigins:           []string{"*"},
			RateLimitRequests:     100,
			RateLimitWindow:       time.Minute,
			FeedbackRatePerMinute: 30,
		},
	}
}

// EngineConfig maps the operator-facing settings onto the engine config.
func (c *Config) EngineConfig() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.Profile.HistoryWindow = c.Recommend.HistoryWindow
	cfg.Profile.MaxGenres = c.Recommend.MaxGenres
	cfg.Profile.MaxArtists = c.Recommend.MaxArtists
	cfg.Profile.WeightedAveraging = c.Recommend.WeightedAveraging
	cfg.Limits.MaxCandidates = c.Recommend.MaxCandidates
	cfg.Limits.DefaultLimit = c.Recommend.DefaultLimit
	cfg.Limits.MaxLimit = c.Recommend.MaxLimit
	cfg.Limits.ScoreWorkers = c.Recommend.ScoreWorkers
	cfg.Limits.FetchTimeout = c.Recommend.FetchTimeout
	cfg.Cache.Enabled = c.Recommend.CacheEnabled
	cfg.Cache.TTL = c.Recommend.CacheTTL
	cfg.Cache.MaxEntries = c.Recommend.CacheMaxEntries
	return cfg
}

// Validate checks the loaded configuration. Engine-level settings are
// validated again by recommend.Config when the engine is constructed.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Database.Threads <= 0 {
		return fmt.Errorf("database threads must be positive, got %d", c.Database.Threads)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database max open conns must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate limit requests must be positive, got %d", c.Security.RateLimitRequests)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %v", c.Security.RateLimitWindow)
	}
	if c.Security.FeedbackRatePerMinute <= 0 {
		return fmt.Errorf("feedback rate must be positive, got %d", c.Security.FeedbackRatePerMinute)
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend settings: %w", err)
	}
	return nil
}
