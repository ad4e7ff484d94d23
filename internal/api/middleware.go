// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestID attaches a correlation ID to every request, honoring an
// incoming X-Request-ID header and echoing the ID on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// userLimiter rate-limits by user ID with one token bucket per user.
// Idle buckets are swept periodically so the map does not grow without
// bound under user churn.
type userLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newUserLimiter(perMinute int) *userLimiter {
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	ul := &userLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
	go ul.cleanup()
	return ul
}

// Allow reports whether the user may submit now.
func (ul *userLimiter) Allow(userID string) bool {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	entry, ok := ul.limiters[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(ul.limit, ul.burst)}
		ul.limiters[userID] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter.Allow()
}

func (ul *userLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-15 * time.Minute)
		ul.mu.Lock()
		for userID, entry := range ul.limiters {
			if entry.lastAccess.Before(cutoff) {
				delete(ul.limiters, userID)
			}
		}
		ul.mu.Unlock()
	}
}
