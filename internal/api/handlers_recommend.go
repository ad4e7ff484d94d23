// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/songifi/lyricsflip-store-sub000/internal/logging"
	"github.com/songifi/lyricsflip-store-sub000/internal/metrics"
	"github.com/songifi/lyricsflip-store-sub000/internal/models"
	"github.com/songifi/lyricsflip-store-sub000/internal/recommend"
)

// timeoutContext derives a bounded context for a handler.
func timeoutContext(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

// GetRecommendations serves GET /api/v1/recommendations/user/{userID}.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	limit := h.cfg.Recommend.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			metrics.RecommendationRequests.WithLabelValues("validation_error").Inc()
			respondError(w, http.StatusBadRequest, "invalid_limit",
				"limit must be an integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := timeoutContext(r, 30*time.Second)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, recommend.Request{
		UserID:    userID,
		Limit:     limit,
		RequestID: requestIDFrom(r),
	})
	if err != nil {
		switch {
		case recommend.IsValidation(err):
			metrics.RecommendationRequests.WithLabelValues("validation_error").Inc()
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case recommend.IsCancellation(err):
			metrics.RecommendationRequests.WithLabelValues("cancelled").Inc()
			respondError(w, http.StatusServiceUnavailable, "timeout",
				"recommendation request was cancelled")
		default:
			metrics.RecommendationRequests.WithLabelValues("error").Inc()
			logging.Error().Err(err).Str("user_id", userID).Msg("Recommendation request failed")
			respondError(w, http.StatusInternalServerError, "internal_error",
				"failed to compute recommendations")
		}
		return
	}

	if resp.Metadata.Degraded {
		metrics.RecommendationRequests.WithLabelValues("degraded").Inc()
	} else {
		metrics.RecommendationRequests.WithLabelValues("ok").Inc()
	}
	if resp.Metadata.CacheHit {
		metrics.CacheHits.Inc()
	} else {
		metrics.CacheMisses.Inc()
	}
	metrics.RecommendationLatency.Observe(time.Since(start).Seconds())
	metrics.RecommendationCount.Observe(float64(len(resp.Recommendations)))
	metrics.CandidatePoolSize.Observe(float64(resp.TotalCandidates))

	respondJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: &models.APIMetadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   resp.Metadata.RequestID,
			QueryTimeMS: resp.Metadata.LatencyMS,
			Cached:      resp.Metadata.CacheHit,
			Degraded:    resp.Metadata.Degraded,
		},
	})
}

// ExplainRecommendation serves
// GET /api/v1/recommendations/user/{userID}/explain/{trackID}.
func (h *Handler) ExplainRecommendation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	trackID := chi.URLParam(r, "trackID")

	ctx, cancel := timeoutContext(r, 15*time.Second)
	defer cancel()

	rec, err := h.engine.Explain(ctx, userID, trackID)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrTrackNotFound):
			respondError(w, http.StatusNotFound, "track_not_found",
				"track does not exist")
		case errors.Is(err, recommend.ErrNotRecommended):
			respondError(w, http.StatusNotFound, "not_recommended",
				"track does not clear the relevance threshold for this user")
		case recommend.IsValidation(err):
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case recommend.IsCancellation(err):
			respondError(w, http.StatusServiceUnavailable, "timeout",
				"explain request was cancelled")
		default:
			logging.Error().Err(err).Str("user_id", userID).Str("track_id", trackID).
				Msg("Explain request failed")
			respondError(w, http.StatusServiceUnavailable, "store_unavailable",
				"could not load recommendation data")
		}
		return
	}

	respondJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   rec,
		Metadata: &models.APIMetadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r),
		},
	})
}

// SubmitFeedback serves POST /api/v1/recommendations/feedback.
// Persistence is fire-and-forget: the caller gets 202 once the payload is
// validated, and store failures are only logged and counted.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var body models.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		metrics.FeedbackRejected.Inc()
		respondError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		metrics.FeedbackRejected.Inc()
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondError(w, http.StatusBadRequest, "invalid_field",
				"invalid value for field "+verrs[0].Field())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid feedback payload")
		return
	}

	if !h.feedbackLimiter.Allow(body.UserID) {
		metrics.FeedbackRejected.Inc()
		respondError(w, http.StatusTooManyRequests, "rate_limited",
			"too many feedback submissions, slow down")
		return
	}

	fb := recommend.Feedback{
		ID:               uuid.NewString(),
		UserID:           body.UserID,
		RecommendationID: body.RecommendationID,
		TrackID:          body.TrackID,
		Type:             body.FeedbackType,
		Comment:          body.Comment,
		CreatedAt:        time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.provider.RecordFeedback(ctx, fb); err != nil {
			logging.Error().Err(err).
				Str("user_id", fb.UserID).
				Str("recommendation_id", fb.RecommendationID).
				Msg("Failed to persist feedback")
			return
		}
		metrics.FeedbackRecorded.WithLabelValues(fb.Type).Inc()
	}()

	respondJSON(w, http.StatusAccepted, models.APIResponse{
		Status: "accepted",
		Data:   map[string]string{"feedback_id": fb.ID},
		Metadata: &models.APIMetadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestIDFrom(r),
		},
	})
}
