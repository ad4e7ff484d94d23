// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

// Package models holds the shared HTTP wire types.
package models

import "time"

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Status   string       `json:"status"`
	Data     any          `json:"data,omitempty"`
	Metadata *APIMetadata `json:"metadata,omitempty"`
	Error    *APIError    `json:"error,omitempty"`
}

// APIMetadata carries per-response diagnostics.
type APIMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
	Degraded    bool      `json:"degraded,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FeedbackRequest is the POST body for recommendation feedback.
type FeedbackRequest struct {
	UserID           string `json:"user_id" validate:"required"`
	RecommendationID string `json:"recommendation_id" validate:"required"`
	TrackID          string `json:"track_id,omitempty"`
	FeedbackType     string `json:"feedback_type" validate:"required,oneof=helpful not_helpful irrelevant already_known"`
	Comment          string `json:"comment,omitempty" validate:"max=1000"`
}

// HealthStatus is the payload for the health endpoint.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	UptimeS  int64  `json:"uptime_seconds"`
	Version  string `json:"version"`
}
