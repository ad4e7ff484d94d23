// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

// Package api exposes the recommendation engine over HTTP: the
// recommendation list and explain endpoints, feedback collection, health,
// and Prometheus metrics.
package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/songifi/lyricsflip-store-sub000/internal/config"
	"github.com/songifi/lyricsflip-store-sub000/internal/database"
	"github.com/songifi/lyricsflip-store-sub000/internal/logging"
	"github.com/songifi/lyricsflip-store-sub000/internal/models"
	"github.com/songifi/lyricsflip-store-sub000/internal/recommend"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Handler bundles the HTTP endpoints and their dependencies.
type Handler struct {
	cfg             *config.Config
	engine          *recommend.Engine
	provider        recommend.DataProvider
	db              *database.DB
	validate        *validator.Validate
	feedbackLimiter *userLimiter
	startTime       time.Time
}

// NewHandler wires the endpoints.
func NewHandler(cfg *config.Config, engine *recommend.Engine, provider recommend.DataProvider, db *database.DB) *Handler {
	return &Handler{
		cfg:             cfg,
		engine:          engine,
		provider:        provider,
		db:              db,
		validate:        validator.New(),
		feedbackLimiter: newUserLimiter(cfg.Security.FeedbackRatePerMinute),
		startTime:       time.Now(),
	}
}

func respondJSON(w http.ResponseWriter, status int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, models.APIResponse{
		Status: "error",
		Error:  &models.APIError{Code: code, Message: message},
		Metadata: &models.APIMetadata{
			Timestamp: time.Now().UTC(),
		},
	})
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, 2*time.Second)
	defer cancel()

	status := http.StatusOK
	payload := models.HealthStatus{
		Status:   "ok",
		Database: "ok",
		UptimeS:  int64(time.Since(h.startTime).Seconds()),
		Version:  Version,
	}
	if err := h.db.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Health check database ping failed")
		payload.Status = "degraded"
		payload.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, models.APIResponse{
		Status: payload.Status,
		Data:   payload,
		Metadata: &models.APIMetadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r),
		},
	})
}
