// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package recommend

import (
	"fmt"
	"time"
)

// Config controls the recommendation engine.
type Config struct {
	Scoring ScoringConfig `json:"scoring"`
	Profile ProfileConfig `json:"profile"`
	Limits  LimitsConfig  `json:"limits"`
	Cache   CacheConfig   `json:"cache"`
}

// ScoringConfig holds the similarity weights and thresholds.
// The dimension weights are renormalized per candidate over the dimensions
// that actually apply, so they need not sum to exactly 1.
type ScoringConfig struct {
	// GenreWeight scales the genre rank-decay dimension.
	GenreWeight float64 `json:"genre_weight"`

	// ArtistWeight scales the artist rank-decay dimension.
	ArtistWeight float64 `json:"artist_weight"`

	// AudioWeight scales the mean audio-channel closeness dimension.
	AudioWeight float64 `json:"audio_weight"`

	// DurationWeight scales the track-length closeness dimension.
	DurationWeight float64 `json:"duration_weight"`

	// MinScore is the relevance floor. Candidates scoring at or below it
	// are discarded rather than ranked.
	MinScore float64 `json:"min_score"`

	// TempoCeiling is the BPM floor for the tempo-closeness denominator,
	// keeping small absolute BPM gaps from dominating at slow tempos.
	TempoCeiling float64 `json:"tempo_ceiling"`

	// EnergyWindow is the max energy distance that still counts as
	// "similar energy" in explanations.
	EnergyWindow float64 `json:"energy_window"`

	// ValenceWindow is the max valence distance that still counts as a
	// mood match in explanations.
	ValenceWindow float64 `json:"valence_window"`
}

// ProfileConfig holds the taste-profile builder parameters.
type ProfileConfig struct {
	// HistoryWindow is how many recent interactions feed the profile.
	HistoryWindow int `json:"history_window"`

	// MaxGenres caps the genre preference list.
	MaxGenres int `json:"max_genres"`

	// MaxArtists caps the artist preference list.
	MaxArtists int `json:"max_artists"`

	// WeightedAveraging divides audio-channel sums by accumulated weight
	// instead of contributor count. Off by default, matching the behavior
	// the scoring model was tuned against.
	WeightedAveraging bool `json:"weighted_averaging"`
}

// LimitsConfig bounds request handling.
type LimitsConfig struct {
	// MaxCandidates caps the candidate pool fetched per request.
	MaxCandidates int `json:"max_candidates"`

	// DefaultLimit is used when the HTTP layer receives no limit.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit clamps requested limits.
	MaxLimit int `json:"max_limit"`

	// FetchTimeout bounds the profile and candidate fetch phase.
	FetchTimeout time.Duration `json:"fetch_timeout"`

	// ScoreWorkers sizes the scoring worker pool. Zero means NumCPU.
	ScoreWorkers int `json:"score_workers"`
}

// CacheConfig controls the per-(user, limit) response cache.
type CacheConfig struct {
	Enabled    bool          `json:"enabled"`
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"max_entries"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			GenreWeight:    0.3,
			ArtistWeight:   0.2,
			AudioWeight:    0.4,
			DurationWeight: 0.1,
			MinScore:       0.1,
			TempoCeiling:   200,
			EnergyWindow:   0.2,
			ValenceWindow:  0.2,
		},
		Profile: ProfileConfig{
			HistoryWindow:     100,
			MaxGenres:         10,
			MaxArtists:        20,
			WeightedAveraging: false,
		},
		Limits: LimitsConfig{
			MaxCandidates: 1000,
			DefaultLimit:  20,
			MaxLimit:      100,
			FetchTimeout:  10 * time.Second,
			ScoreWorkers:  8,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Scoring.GenreWeight < 0 {
		return fmt.Errorf("genre weight must be non-negative, got %f", c.Scoring.GenreWeight)
	}
	if c.Scoring.ArtistWeight < 0 {
		return fmt.Errorf("artist weight must be non-negative, got %f", c.Scoring.ArtistWeight)
	}
	if c.Scoring.AudioWeight < 0 {
		return fmt.Errorf("audio weight must be non-negative, got %f", c.Scoring.AudioWeight)
	}
	if c.Scoring.DurationWeight < 0 {
		return fmt.Errorf("duration weight must be non-negative, got %f", c.Scoring.DurationWeight)
	}
	total := c.Scoring.GenreWeight + c.Scoring.ArtistWeight +
		c.Scoring.AudioWeight + c.Scoring.DurationWeight
	if total <= 0 {
		return fmt.Errorf("at least one scoring weight must be positive, total %f", total)
	}
	if c.Scoring.MinScore < 0 || c.Scoring.MinScore >= 1 {
		return fmt.Errorf("min score must be in [0, 1), got %f", c.Scoring.MinScore)
	}
	if c.Scoring.TempoCeiling <= 0 {
		return fmt.Errorf("tempo ceiling must be positive, got %f", c.Scoring.TempoCeiling)
	}
	if c.Scoring.EnergyWindow <= 0 || c.Scoring.ValenceWindow <= 0 {
		return fmt.Errorf("explanation windows must be positive, got energy %f valence %f",
			c.Scoring.EnergyWindow, c.Scoring.ValenceWindow)
	}
	if c.Profile.HistoryWindow <= 0 {
		return fmt.Errorf("history window must be positive, got %d", c.Profile.HistoryWindow)
	}
	if c.Profile.MaxGenres <= 0 {
		return fmt.Errorf("max genres must be positive, got %d", c.Profile.MaxGenres)
	}
	if c.Profile.MaxArtists <= 0 {
		return fmt.Errorf("max artists must be positive, got %d", c.Profile.MaxArtists)
	}
	if c.Limits.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("max limit %d must be >= default limit %d",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.Limits.FetchTimeout)
	}
	if c.Limits.ScoreWorkers < 0 {
		return fmt.Errorf("score workers must be non-negative, got %d", c.Limits.ScoreWorkers)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache max entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
