// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package database

import (
	"context"
	"testing"
	"time"

	"github.com/songifi/lyricsflip-store-sub000/internal/config"
	"github.com/songifi/lyricsflip-store-sub000/internal/recommend"
)

func newTestStore(t *testing.T) *RecommendationDataProvider {
	t.Helper()
	db, err := New(config.DatabaseConfig{
		Path:         ":memory:",
		MaxMemory:    "256MB",
		Threads:      2,
		MaxOpenConns: 2,
	})
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return NewRecommendationDataProvider(db)
}

type seedTrack struct {
	id        string
	genre     string
	energy    *float64
	tempo     *float64
	duration  *float64
	active    bool
	createdAt time.Time
}

func insertTrack(t *testing.T, p *RecommendationDataProvider, tr seedTrack) {
	t.Helper()
	_, err := p.db.conn.Exec(
		`INSERT INTO tracks (id, title, artist_id, artist_name, genre,
			duration_seconds, tempo, energy, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.id, "title-"+tr.id, "artist-"+tr.id, "Artist "+tr.id,
		nullable(tr.genre), ptrOrNil(tr.duration), ptrOrNil(tr.tempo),
		ptrOrNil(tr.energy), tr.active, tr.createdAt)
	if err != nil {
		t.Fatalf("insert track %s: %v", tr.id, err)
	}
}

func ptrOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func insertInteraction(t *testing.T, p *RecommendationDataProvider, id, userID, trackID string, itype recommend.InteractionType, createdAt time.Time) {
	t.Helper()
	_, err := p.db.conn.Exec(
		`INSERT INTO interactions (id, user_id, track_id, interaction_type, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, trackID, string(itype), `{"source":"player"}`, createdAt)
	if err != nil {
		t.Fatalf("insert interaction %s: %v", id, err)
	}
}

func f64(v float64) *float64 {
	return &v
}

func TestGetCandidateTracks(t *testing.T) {
	p := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	insertTrack(t, p, seedTrack{id: "old", genre: "Rock", active: true, createdAt: base})
	insertTrack(t, p, seedTrack{id: "new", genre: "Jazz", active: true, createdAt: base.Add(time.Hour)})
	insertTrack(t, p, seedTrack{id: "inactive", genre: "Rock", active: false, createdAt: base.Add(2 * time.Hour)})
	insertTrack(t, p, seedTrack{id: "seen", genre: "Rock", active: true, createdAt: base.Add(3 * time.Hour)})
	insertInteraction(t, p, "i1", "u1", "seen", recommend.InteractionPlay, base)

	tracks, err := p.GetCandidateTracks(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetCandidateTracks: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(tracks), tracks)
	}
	if tracks[0].ID != "new" || tracks[1].ID != "old" {
		t.Errorf("order = [%s %s], want newest-first [new old]", tracks[0].ID, tracks[1].ID)
	}

	// Another user has no interactions, so the seen track is fair game.
	tracks, err = p.GetCandidateTracks(context.Background(), "u2", 10)
	if err != nil {
		t.Fatalf("GetCandidateTracks u2: %v", err)
	}
	if len(tracks) != 3 {
		t.Errorf("got %d candidates for fresh user, want 3", len(tracks))
	}
}

func TestGetCandidateTracksLimit(t *testing.T) {
	p := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		insertTrack(t, p, seedTrack{
			id:        string(rune('a' + i)),
			genre:     "Rock",
			active:    true,
			createdAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	tracks, err := p.GetCandidateTracks(context.Background(), "u1", 3)
	if err != nil {
		t.Fatalf("GetCandidateTracks: %v", err)
	}
	if len(tracks) != 3 {
		t.Errorf("got %d candidates, want limit 3", len(tracks))
	}
}

func TestGetRecentInteractions(t *testing.T) {
	p := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	insertTrack(t, p, seedTrack{id: "t1", genre: "Rock", energy: f64(0.8), tempo: f64(120), duration: f64(200), active: true, createdAt: base})
	insertTrack(t, p, seedTrack{id: "t2", genre: "Jazz", active: true, createdAt: base})
	insertTrack(t, p, seedTrack{id: "t3", active: true, createdAt: base})

	insertInteraction(t, p, "i1", "u1", "t1", recommend.InteractionLike, base.Add(1*time.Minute))
	insertInteraction(t, p, "i2", "u1", "t2", recommend.InteractionPlay, base.Add(2*time.Minute))
	insertInteraction(t, p, "i3", "u1", "t3", recommend.InteractionSkip, base.Add(3*time.Minute))

	interactions, err := p.GetRecentInteractions(context.Background(), "u1", 2)
	if err != nil {
		t.Fatalf("GetRecentInteractions: %v", err)
	}

	if len(interactions) != 2 {
		t.Fatalf("got %d interactions, want 2", len(interactions))
	}
	if interactions[0].TrackID != "t3" || interactions[1].TrackID != "t2" {
		t.Errorf("order = [%s %s], want newest-first [t3 t2]",
			interactions[0].TrackID, interactions[1].TrackID)
	}
	if interactions[0].Type != recommend.InteractionSkip {
		t.Errorf("type = %s, want skip", interactions[0].Type)
	}
	if interactions[0].Context["source"] != "player" {
		t.Errorf("context = %v, want source=player", interactions[0].Context)
	}
	// t2 carries no audio analysis at all.
	if interactions[1].Track.AudioFeatures != nil {
		t.Errorf("unanalyzed track has features: %+v", interactions[1].Track.AudioFeatures)
	}
	if interactions[1].Track.Genre != "Jazz" {
		t.Errorf("joined genre = %q, want Jazz", interactions[1].Track.Genre)
	}
}

func TestGetRecentInteractionsJoinedFeatures(t *testing.T) {
	p := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	insertTrack(t, p, seedTrack{id: "t1", genre: "Rock", energy: f64(0.8), tempo: f64(120), duration: f64(200), active: true, createdAt: base})
	insertInteraction(t, p, "i1", "u1", "t1", recommend.InteractionLike, base)

	interactions, err := p.GetRecentInteractions(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetRecentInteractions: %v", err)
	}
	if len(interactions) != 1 {
		t.Fatalf("got %d interactions, want 1", len(interactions))
	}

	track := interactions[0].Track
	if track.AudioFeatures == nil {
		t.Fatal("joined track missing audio features")
	}
	if track.AudioFeatures.Energy == nil || *track.AudioFeatures.Energy != 0.8 {
		t.Errorf("energy = %v, want 0.8", track.AudioFeatures.Energy)
	}
	if track.AudioFeatures.Valence != nil {
		t.Error("valence should be nil for a NULL column")
	}
	if track.DurationSeconds == nil || *track.DurationSeconds != 200 {
		t.Errorf("duration = %v, want 200", track.DurationSeconds)
	}
}

func TestGetTrack(t *testing.T) {
	p := newTestStore(t)
	insertTrack(t, p, seedTrack{id: "t1", genre: "Rock", active: true, createdAt: time.Now().UTC()})

	track, err := p.GetTrack(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTrack: %v", err)
	}
	if track == nil || track.ID != "t1" || track.ArtistName != "Artist t1" {
		t.Errorf("track = %+v, want t1", track)
	}

	track, err = p.GetTrack(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetTrack missing: %v", err)
	}
	if track != nil {
		t.Errorf("track = %+v, want nil for unknown ID", track)
	}
}

func TestRecordFeedback(t *testing.T) {
	p := newTestStore(t)

	fb := recommend.Feedback{
		ID:               "fb1",
		UserID:           "u1",
		RecommendationID: "rec1",
		TrackID:          "t1",
		Type:             "helpful",
		Comment:          "spot on",
		CreatedAt:        time.Now().UTC(),
	}
	if err := p.RecordFeedback(context.Background(), fb); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	var count int
	row := p.db.conn.QueryRow(`SELECT COUNT(*) FROM recommendation_feedback WHERE user_id = ?`, "u1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count feedback: %v", err)
	}
	if count != 1 {
		t.Errorf("feedback rows = %d, want 1", count)
	}
}
