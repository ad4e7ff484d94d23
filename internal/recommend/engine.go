// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package recommend

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Engine produces content-based recommendations. It holds no per-user
// state between requests; everything a request needs is fetched, scored,
// and discarded (modulo the response cache).
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	provider DataProvider

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	requestCount  atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	degradedCount atomic.Int64
}

type cacheEntry struct {
	response  Response
	expiresAt time.Time
}

// Stats is a snapshot of the engine's request counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Degraded    int64 `json:"degraded"`
}

// NewEngine creates an engine with the given configuration. A nil config
// uses defaults. Call SetDataProvider before serving requests.
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
		cache:  make(map[string]cacheEntry),
	}, nil
}

// SetDataProvider wires the store. Must be called before Recommend.
func (e *Engine) SetDataProvider(provider DataProvider) {
	e.provider = provider
}

// Stats returns the current request counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		Degraded:    e.degradedCount.Load(),
	}
}

// Recommend scores the user's unseen catalog against their taste profile.
//
// Error contract: a malformed request returns *ValidationError before any
// data access; caller cancellation returns the context error with no
// partial result; store failures never surface, the response degrades to
// an empty list with Metadata.Degraded set.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if e.provider == nil {
		return nil, fmt.Errorf("recommend: data provider not configured")
	}
	if err := e.prepareRequest(&req); err != nil {
		return nil, err
	}

	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Int("limit", req.Limit).
		Logger()

	if resp, ok := e.cacheGet(req); ok {
		e.cacheHits.Add(1)
		resp.Metadata.RequestID = req.RequestID
		resp.Metadata.CacheHit = true
		resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
		logger.Debug().Msg("Served recommendations from cache")
		return resp, nil
	}
	e.cacheMisses.Add(1)

	interactions, candidates, err := e.fetchInputs(ctx, req.UserID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.degradedCount.Add(1)
		logger.Error().Err(err).Msg("Store fetch failed, degrading to empty response")
		return e.emptyResponse(req, start, true), nil
	}

	profile := BuildProfile(interactions, e.config.Profile)
	candidates = excludeSeen(candidates, interactions)

	var recommendations []Recommendation
	if !profile.IsEmpty() && len(candidates) > 0 {
		recommendations, err = e.scoreAndRank(ctx, &profile, candidates, req.Limit)
		if err != nil {
			return nil, err
		}
	}
	if recommendations == nil {
		recommendations = []Recommendation{}
	}

	resp := &Response{
		Recommendations: recommendations,
		TotalCandidates: len(candidates),
		Metadata: ResponseMetadata{
			RequestID:   req.RequestID,
			UserID:      req.UserID,
			LatencyMS:   time.Since(start).Milliseconds(),
			ProfileSize: profile.InteractionCount,
			Timestamp:   time.Now().UTC(),
		},
	}
	e.cachePut(req, resp)

	logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(recommendations)).
		Int("profile_size", profile.InteractionCount).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("Recommendations computed")
	return resp, nil
}

// Explain recomputes the score and explanation for one user-track pair.
// Returns ErrTrackNotFound for unknown tracks and ErrNotRecommended when
// the track does not clear the relevance floor for this user.
func (e *Engine) Explain(ctx context.Context, userID, trackID string) (*Recommendation, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("recommend: data provider not configured")
	}
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if trackID == "" {
		return nil, &ValidationError{Field: "track_id", Reason: "must not be empty"}
	}

	interactions, err := e.provider.GetRecentInteractions(ctx, userID, e.config.Profile.HistoryWindow)
	if err != nil {
		if IsCancellation(err) {
			return nil, err
		}
		return nil, &DataAccessError{Op: "interactions", Err: err}
	}

	track, err := e.provider.GetTrack(ctx, trackID)
	if err != nil {
		if IsCancellation(err) {
			return nil, err
		}
		return nil, &DataAccessError{Op: "track", Err: err}
	}
	if track == nil {
		return nil, ErrTrackNotFound
	}

	profile := BuildProfile(interactions, e.config.Profile)
	breakdown := ScoreTrack(&profile, track, e.config.Scoring)
	if breakdown.Composite <= e.config.Scoring.MinScore {
		return nil, ErrNotRecommended
	}

	return &Recommendation{
		TrackID:     track.ID,
		Score:       breakdown.Composite,
		Confidence:  math.Min(breakdown.Composite, 1),
		Explanation: BuildExplanation(&profile, track, e.config.Scoring),
	}, nil
}

// prepareRequest validates and normalizes the request in place.
func (e *Engine) prepareRequest(req *Request) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if req.Limit <= 0 {
		return &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be positive, got %d", req.Limit)}
	}
	if req.Limit > e.config.Limits.MaxLimit {
		req.Limit = e.config.Limits.MaxLimit
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return nil
}

// fetchInputs runs the history and candidate queries concurrently and
// joins the results. The first store failure wins; a caller-side
// cancellation is distinguished by the caller inspecting ctx.
func (e *Engine) fetchInputs(ctx context.Context, userID string) ([]Interaction, []Track, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.config.Limits.FetchTimeout)
	defer cancel()

	var interactions []Interaction
	var candidates []Track

	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		interactions, err = e.provider.GetRecentInteractions(gctx, userID, e.config.Profile.HistoryWindow)
		if err != nil {
			return &DataAccessError{Op: "interactions", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		candidates, err = e.provider.GetCandidateTracks(gctx, userID, e.config.Limits.MaxCandidates)
		if err != nil {
			return &DataAccessError{Op: "candidates", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return interactions, candidates, nil
}

// excludeSeen drops candidates the interaction window already covers.
// The store query excludes them too; this guards the no-repeat guarantee
// against a regressed or eventually-consistent store.
func excludeSeen(candidates []Track, interactions []Interaction) []Track {
	if len(interactions) == 0 {
		return candidates
	}
	seen := make(map[string]struct{}, len(interactions))
	for i := range interactions {
		seen[interactions[i].TrackID] = struct{}{}
	}
	filtered := candidates[:0]
	for _, track := range candidates {
		if _, ok := seen[track.ID]; !ok {
			filtered = append(filtered, track)
		}
	}
	return filtered
}

// scoreAndRank scores every candidate on a bounded worker pool, applies
// the relevance floor, sorts, truncates, and attaches explanations.
// Cancellation aborts the whole batch; no partial list is returned.
func (e *Engine) scoreAndRank(ctx context.Context, profile *TasteProfile, candidates []Track, limit int) ([]Recommendation, error) {
	workers := e.config.Limits.ScoreWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	breakdowns := make([]ScoreBreakdown, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			breakdowns[i] = ScoreTrack(profile, &candidates[i], e.config.Scoring)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type ranked struct {
		index int
		score float64
	}
	passing := make([]ranked, 0, len(candidates))
	for i, bd := range breakdowns {
		if bd.Composite > e.config.Scoring.MinScore {
			passing = append(passing, ranked{index: i, score: bd.Composite})
		}
	}

	// Equal scores fall back to track ID so identical requests always
	// produce identical orderings.
	sort.Slice(passing, func(i, j int) bool {
		if passing[i].score != passing[j].score {
			return passing[i].score > passing[j].score
		}
		return candidates[passing[i].index].ID < candidates[passing[j].index].ID
	})

	if len(passing) > limit {
		passing = passing[:limit]
	}

	recommendations := make([]Recommendation, 0, len(passing))
	for _, r := range passing {
		track := &candidates[r.index]
		recommendations = append(recommendations, Recommendation{
			TrackID:     track.ID,
			Score:       r.score,
			Confidence:  math.Min(r.score, 1),
			Explanation: BuildExplanation(profile, track, e.config.Scoring),
		})
	}
	return recommendations, nil
}

// emptyResponse builds the degraded (or cold-start) empty result.
func (e *Engine) emptyResponse(req Request, start time.Time, degraded bool) *Response {
	return &Response{
		Recommendations: []Recommendation{},
		TotalCandidates: 0,
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			LatencyMS: time.Since(start).Milliseconds(),
			Degraded:  degraded,
			Timestamp: time.Now().UTC(),
		},
	}
}

func cacheKey(req Request) string {
	return fmt.Sprintf("%s:%d", req.UserID, req.Limit)
}

// cacheGet returns a copy of the cached response for this (user, limit),
// if present and fresh.
func (e *Engine) cacheGet(req Request) (*Response, bool) {
	if !e.config.Cache.Enabled {
		return nil, false
	}
	e.cacheMu.RLock()
	entry, ok := e.cache[cacheKey(req)]
	e.cacheMu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return copyResponse(&entry.response), true
}

// cachePut stores a copy of the response, evicting expired entries first
// and the soonest-to-expire entry if the cache is still full.
func (e *Engine) cachePut(req Request, resp *Response) {
	if !e.config.Cache.Enabled {
		return
	}
	now := time.Now()

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		for key, entry := range e.cache {
			if now.After(entry.expiresAt) {
				delete(e.cache, key)
			}
		}
	}
	if len(e.cache) >= e.config.Cache.MaxEntries {
		var oldestKey string
		var oldest time.Time
		for key, entry := range e.cache {
			if oldestKey == "" || entry.expiresAt.Before(oldest) {
				oldestKey = key
				oldest = entry.expiresAt
			}
		}
		delete(e.cache, oldestKey)
	}

	e.cache[cacheKey(req)] = cacheEntry{
		response:  *copyResponse(resp),
		expiresAt: now.Add(e.config.Cache.TTL),
	}
}

// InvalidateUser drops every cached response for the user. Called when
// new interactions arrive so stale lists do not outlive the TTL window.
func (e *Engine) InvalidateUser(userID string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	prefix := userID + ":"
	for key := range e.cache {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(e.cache, key)
		}
	}
}

func copyResponse(resp *Response) *Response {
	out := *resp
	out.Recommendations = make([]Recommendation, len(resp.Recommendations))
	copy(out.Recommendations, resp.Recommendations)
	return &out
}
