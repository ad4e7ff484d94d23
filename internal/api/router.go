// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(
		h.cfg.Security.RateLimitRequests,
		h.cfg.Security.RateLimitWindow,
	))

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", h.Health)
		api.Route("/recommendations", func(rec chi.Router) {
			rec.Get("/user/{userID}", h.GetRecommendations)
			rec.Get("/user/{userID}/explain/{trackID}", h.ExplainRecommendation)
			rec.Post("/feedback", h.SubmitFeedback)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
