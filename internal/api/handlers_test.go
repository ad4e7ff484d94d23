// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/songifi/lyricsflip-store-sub000/internal/config"
	"github.com/songifi/lyricsflip-store-sub000/internal/recommend"
)

// stubProvider implements recommend.DataProvider for handler tests.
type stubProvider struct {
	interactions    []recommend.Interaction
	candidates      []recommend.Track
	tracks          map[string]*recommend.Track
	interactionsErr error

	mu       sync.Mutex
	feedback []recommend.Feedback
}

func (s *stubProvider) GetRecentInteractions(ctx context.Context, userID string, limit int) ([]recommend.Interaction, error) {
	if s.interactionsErr != nil {
		return nil, s.interactionsErr
	}
	return s.interactions, nil
}

func (s *stubProvider) GetCandidateTracks(ctx context.Context, userID string, limit int) ([]recommend.Track, error) {
	return s.candidates, nil
}

func (s *stubProvider) GetTrack(ctx context.Context, trackID string) (*recommend.Track, error) {
	return s.tracks[trackID], nil
}

func (s *stubProvider) RecordFeedback(ctx context.Context, fb recommend.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, fb)
	return nil
}

func (s *stubProvider) recordedFeedback() []recommend.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recommend.Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Recommend: config.RecommendConfig{
			HistoryWindow:   100,
			MaxGenres:       10,
			MaxArtists:      20,
			MaxCandidates:   1000,
			DefaultLimit:    20,
			MaxLimit:        100,
			ScoreWorkers:    4,
			FetchTimeout:    5 * time.Second,
			CacheEnabled:    false,
			CacheTTL:        time.Minute,
			CacheMaxEntries: 100,
		},
		Security: config.SecurityConfig{
			CORSOrigins:           []string{"*"},
			RateLimitRequests:     1000,
			RateLimitWindow:       time.Minute,
			FeedbackRatePerMinute: 60,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, provider recommend.DataProvider) *httptest.Server {
	t.Helper()
	engine, err := recommend.NewEngine(cfg.EngineConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.SetDataProvider(provider)
	handler := NewHandler(cfg, engine, provider, nil)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func likedRockHistory() []recommend.Interaction {
	track := recommend.Track{ID: "h1", Genre: "Rock", ArtistID: "ar1"}
	return []recommend.Interaction{
		{UserID: "u1", TrackID: "h1", Type: recommend.InteractionLike, Track: track},
	}
}

type recommendEnvelope struct {
	Status string             `json:"status"`
	Data   recommend.Response `json:"data"`
}

func TestGetRecommendations(t *testing.T) {
	provider := &stubProvider{
		interactions: likedRockHistory(),
		candidates: []recommend.Track{
			{ID: "c1", Genre: "Rock"},
			{ID: "c2", Genre: "Polka"},
		},
	}
	server := newTestServer(t, testConfig(), provider)

	resp, err := http.Get(server.URL + "/api/v1/recommendations/user/u1?limit=5")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var envelope recommendEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Status != "success" {
		t.Errorf("status = %q, want success", envelope.Status)
	}
	if len(envelope.Data.Recommendations) != 1 || envelope.Data.Recommendations[0].TrackID != "c1" {
		t.Errorf("recommendations = %+v, want only c1", envelope.Data.Recommendations)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestGetRecommendationsInvalidLimit(t *testing.T) {
	server := newTestServer(t, testConfig(), &stubProvider{})

	for _, limit := range []string{"abc", "-1", "0"} {
		resp, err := http.Get(server.URL + "/api/v1/recommendations/user/u1?limit=" + limit)
		if err != nil {
			t.Fatalf("GET limit=%s: %v", limit, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", limit, resp.StatusCode)
		}
	}
}

func TestGetRecommendationsDegraded(t *testing.T) {
	provider := &stubProvider{interactionsErr: errors.New("db down")}
	server := newTestServer(t, testConfig(), provider)

	resp, err := http.Get(server.URL + "/api/v1/recommendations/user/u1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for degraded response", resp.StatusCode)
	}
	var envelope recommendEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.Metadata.Degraded {
		t.Error("degraded flag not set")
	}
	if len(envelope.Data.Recommendations) != 0 {
		t.Errorf("recommendations = %+v, want empty", envelope.Data.Recommendations)
	}
}

func TestExplainRecommendation(t *testing.T) {
	provider := &stubProvider{
		interactions: likedRockHistory(),
		tracks: map[string]*recommend.Track{
			"c1": {ID: "c1", Genre: "Rock"},
		},
	}
	server := newTestServer(t, testConfig(), provider)

	resp, err := http.Get(server.URL + "/api/v1/recommendations/user/u1/explain/c1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope struct {
		Data recommend.Recommendation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.TrackID != "c1" || len(envelope.Data.Explanation.Reasons) == 0 {
		t.Errorf("explanation payload = %+v", envelope.Data)
	}

	missing, err := http.Get(server.URL + "/api/v1/recommendations/user/u1/explain/nope")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown track", missing.StatusCode)
	}
}

func postFeedback(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url+"/api/v1/recommendations/feedback", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	return resp
}

func TestSubmitFeedback(t *testing.T) {
	provider := &stubProvider{}
	server := newTestServer(t, testConfig(), provider)

	resp := postFeedback(t, server.URL, map[string]string{
		"user_id":           "u1",
		"recommendation_id": "rec1",
		"feedback_type":     "helpful",
		"comment":           "nice",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	// Persistence is asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for len(provider.recordedFeedback()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("feedback never persisted")
		}
		time.Sleep(10 * time.Millisecond)
	}
	recorded := provider.recordedFeedback()[0]
	if recorded.UserID != "u1" || recorded.Type != "helpful" || recorded.ID == "" {
		t.Errorf("recorded = %+v", recorded)
	}
}

func TestSubmitFeedbackValidation(t *testing.T) {
	server := newTestServer(t, testConfig(), &stubProvider{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing user", map[string]string{
			"recommendation_id": "rec1", "feedback_type": "helpful",
		}},
		{"bad type", map[string]string{
			"user_id": "u1", "recommendation_id": "rec1", "feedback_type": "meh",
		}},
		{"oversized comment", map[string]string{
			"user_id": "u1", "recommendation_id": "rec1",
			"feedback_type": "helpful", "comment": strings.Repeat("x", 1001),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postFeedback(t, server.URL, tt.body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestSubmitFeedbackRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Security.FeedbackRatePerMinute = 6 // burst of 1
	server := newTestServer(t, cfg, &stubProvider{})

	body := map[string]string{
		"user_id": "burst-user", "recommendation_id": "rec1", "feedback_type": "helpful",
	}
	first := postFeedback(t, server.URL, body)
	first.Body.Close()
	if first.StatusCode != http.StatusAccepted {
		t.Fatalf("first status = %d, want 202", first.StatusCode)
	}
	second := postFeedback(t, server.URL, body)
	second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", second.StatusCode)
	}
}

func TestRequestIDEcho(t *testing.T) {
	server := newTestServer(t, testConfig(), &stubProvider{})

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/recommendations/user/u1", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("X-Request-ID", "trace-123")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want trace-123", got)
	}
}
