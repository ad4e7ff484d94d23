// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package recommend

import (
	"context"
	"time"
)

// InteractionType classifies how a user engaged with a track.
type InteractionType string

const (
	InteractionLike          InteractionType = "like"
	InteractionAddToPlaylist InteractionType = "add_to_playlist"
	InteractionDownload      InteractionType = "download"
	InteractionShare         InteractionType = "share"
	InteractionPlay          InteractionType = "play"
	InteractionSkip          InteractionType = "skip"
	InteractionDislike       InteractionType = "dislike"
)

// Weight returns the taste-profile contribution of this interaction type.
// Skips and dislikes carry negative weight so they actively suppress the
// genres and artists they touch. Unrecognized types count as weak positive
// signal rather than being dropped.
func (t InteractionType) Weight() float64 {
	switch t {
	case InteractionLike:
		return 5
	case InteractionAddToPlaylist:
		return 4
	case InteractionDownload:
		return 4
	case InteractionShare:
		return 3
	case InteractionPlay:
		return 2
	case InteractionSkip:
		return -1
	case InteractionDislike:
		return -3
	default:
		return 1
	}
}

// String returns the wire representation of the interaction type.
func (t InteractionType) String() string {
	return string(t)
}

// AudioFeatures holds the per-track acoustic analysis channels.
// Every channel is optional; a nil pointer means the analyzer never
// produced a value for it, which is distinct from a measured zero.
// Tempo is in BPM; the remaining channels are normalized to [0, 1].
type AudioFeatures struct {
	Tempo            *float64 `json:"tempo,omitempty"`
	Energy           *float64 `json:"energy,omitempty"`
	Valence          *float64 `json:"valence,omitempty"`
	Acousticness     *float64 `json:"acousticness,omitempty"`
	Danceability     *float64 `json:"danceability,omitempty"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty"`
	Speechiness      *float64 `json:"speechiness,omitempty"`
}

// Track is a catalog entry with the content attributes the scorer reads.
type Track struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	ArtistID        string         `json:"artist_id"`
	ArtistName      string         `json:"artist_name,omitempty"`
	Genre           string         `json:"genre,omitempty"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`
	AudioFeatures   *AudioFeatures `json:"audio_features,omitempty"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Interaction is one recorded user-track event, joined with the track's
// content attributes so the profile builder needs no second lookup.
type Interaction struct {
	UserID          string            `json:"user_id"`
	TrackID         string            `json:"track_id"`
	Type            InteractionType   `json:"interaction_type"`
	DurationSeconds *float64          `json:"duration_seconds,omitempty"`
	Context         map[string]string `json:"context,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Track           Track             `json:"-"`
}

// FeatureAverages is the audio centroid of a taste profile. Channels with
// no contributors in the interaction window stay nil and are skipped by
// the scorer. Duration rides along as an eighth channel even though it is
// a track attribute rather than an analyzer output.
type FeatureAverages struct {
	Tempo            *float64 `json:"tempo,omitempty"`
	Energy           *float64 `json:"energy,omitempty"`
	Valence          *float64 `json:"valence,omitempty"`
	Acousticness     *float64 `json:"acousticness,omitempty"`
	Danceability     *float64 `json:"danceability,omitempty"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty"`
	Speechiness      *float64 `json:"speechiness,omitempty"`
	Duration         *float64 `json:"duration,omitempty"`
}

// TasteProfile summarizes a user's recent listening history.
// Genres and Artists are ordered by descending accumulated weight, ties
// broken by label so the profile is deterministic for a given history.
type TasteProfile struct {
	Genres           []string        `json:"genres"`
	Artists          []string        `json:"artists"`
	Averages         FeatureAverages `json:"averages"`
	InteractionCount int             `json:"interaction_count"`
}

// IsEmpty reports whether the profile carries no preference signal at all.
func (p *TasteProfile) IsEmpty() bool {
	return len(p.Genres) == 0 && len(p.Artists) == 0 &&
		p.Averages == (FeatureAverages{})
}

// GenreRank returns the position of genre in the preference list, or -1.
func (p *TasteProfile) GenreRank(genre string) int {
	for i, g := range p.Genres {
		if g == genre {
			return i
		}
	}
	return -1
}

// ArtistRank returns the position of artistID in the preference list, or -1.
func (p *TasteProfile) ArtistRank(artistID string) int {
	for i, a := range p.Artists {
		if a == artistID {
			return i
		}
	}
	return -1
}

// Explanation carries the human-readable reasons a track was recommended
// plus the matched labels a client can render as chips.
type Explanation struct {
	Reasons        []string `json:"reasons"`
	MatchedGenres  []string `json:"matched_genres"`
	MatchedArtists []string `json:"matched_artists"`
}

// Recommendation is one scored, explained track.
type Recommendation struct {
	TrackID     string      `json:"track_id"`
	Score       float64     `json:"score"`
	Confidence  float64     `json:"confidence"`
	Explanation Explanation `json:"explanation"`
}

// Request asks the engine for recommendations for one user.
type Request struct {
	// UserID identifies the user. Required.
	UserID string `json:"user_id"`

	// Limit is the maximum number of recommendations to return.
	// Must be positive; values above Limits.MaxLimit are clamped.
	Limit int `json:"limit"`

	// RequestID correlates logs and the response. Generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the engine's answer to a Request.
type Response struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalCandidates int              `json:"total_candidates"`
	Metadata        ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries diagnostics about how the response was produced.
type ResponseMetadata struct {
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id"`
	LatencyMS   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit"`
	Degraded    bool      `json:"degraded"`
	ProfileSize int       `json:"profile_size"`
	Timestamp   time.Time `json:"timestamp"`
}

// Feedback is a user's verdict on a recommendation they were shown.
type Feedback struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RecommendationID string    `json:"recommendation_id"`
	TrackID          string    `json:"track_id,omitempty"`
	Type             string    `json:"feedback_type"`
	Comment          string    `json:"comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// DataProvider supplies the engine with interaction history and candidate
// tracks. Implementations must be safe for concurrent use; the engine calls
// GetRecentInteractions and GetCandidateTracks from separate goroutines.
type DataProvider interface {
	// GetRecentInteractions returns the user's interactions newest-first,
	// each joined with its track, capped at limit.
	GetRecentInteractions(ctx context.Context, userID string, limit int) ([]Interaction, error)

	// GetCandidateTracks returns active tracks the user has never
	// interacted with, newest-first, capped at limit.
	GetCandidateTracks(ctx context.Context, userID string, limit int) ([]Track, error)

	// GetTrack returns a single track by ID, or nil when absent.
	GetTrack(ctx context.Context, trackID string) (*Track, error)

	// RecordFeedback appends one feedback row.
	RecordFeedback(ctx context.Context, fb Feedback) error
}
