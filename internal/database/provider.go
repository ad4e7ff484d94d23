// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/songifi/lyricsflip-store-sub000/internal/logging"
	"github.com/songifi/lyricsflip-store-sub000/internal/metrics"
	"github.com/songifi/lyricsflip-store-sub000/internal/recommend"
)

// RecommendationDataProvider adapts the store to recommend.DataProvider.
// Reads go through a circuit breaker so a struggling database fails fast
// instead of queueing requests; the engine turns those failures into
// degraded empty responses.
type RecommendationDataProvider struct {
	db      *DB
	breaker *gobreaker.CircuitBreaker[any]
}

// Compile-time interface check.
var _ recommend.DataProvider = (*RecommendationDataProvider)(nil)

// NewRecommendationDataProvider creates the provider with its breaker.
// The breaker opens after a 60% failure rate over at least 10 requests
// and probes again after 30 seconds.
func NewRecommendationDataProvider(db *DB) *RecommendationDataProvider {
	const name = "recommend-store"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &RecommendationDataProvider{db: db, breaker: breaker}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

const trackColumns = `t.id, t.title, t.artist_id, t.artist_name, t.genre,
	t.duration_seconds, t.tempo, t.energy, t.valence, t.acousticness,
	t.danceability, t.instrumentalness, t.speechiness, t.is_active, t.created_at`

// GetRecentInteractions returns the user's newest interactions joined with
// their tracks. Interactions whose track has been purged from the catalog
// are dropped by the join; they carry no usable content signal anyway.
func (p *RecommendationDataProvider) GetRecentInteractions(ctx context.Context, userID string, limit int) ([]recommend.Interaction, error) {
	query := `SELECT i.user_id, i.track_id, i.interaction_type,
			i.duration_seconds, i.context, i.created_at, ` + trackColumns + `
		FROM interactions i
		JOIN tracks t ON t.id = i.track_id
		WHERE i.user_id = ?
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT ?`

	result, err := p.execute("interactions", func() (any, error) {
		rows, err := p.db.conn.QueryContext(ctx, query, userID, limit)
		if err != nil {
			return nil, fmt.Errorf("query interactions: %w", err)
		}
		defer rows.Close()

		var interactions []recommend.Interaction
		for rows.Next() {
			var inter recommend.Interaction
			var itype string
			var durationListened sql.NullFloat64
			var contextJSON sql.NullString

			err := scanTrackRow(rows.Scan, &inter.Track,
				&inter.UserID, &inter.TrackID, &itype,
				&durationListened, &contextJSON, &inter.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("scan interaction: %w", err)
			}

			inter.Type = recommend.InteractionType(itype)
			if durationListened.Valid {
				v := durationListened.Float64
				inter.DurationSeconds = &v
			}
			if contextJSON.Valid && contextJSON.String != "" {
				if err := json.Unmarshal([]byte(contextJSON.String), &inter.Context); err != nil {
					// Context is advisory; a malformed blob must not
					// sink the whole history fetch.
					logging.Warn().Err(err).Str("track_id", inter.TrackID).Msg("Dropping malformed interaction context")
					inter.Context = nil
				}
			}
			interactions = append(interactions, inter)
		}
		return interactions, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]recommend.Interaction), nil
}

// GetCandidateTracks returns active tracks the user has no interaction
// record for, newest first.
func (p *RecommendationDataProvider) GetCandidateTracks(ctx context.Context, userID string, limit int) ([]recommend.Track, error) {
	query := `SELECT ` + trackColumns + `
		FROM tracks t
		WHERE t.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM interactions i
			WHERE i.user_id = ? AND i.track_id = t.id
		  )
		ORDER BY t.created_at DESC, t.id
		LIMIT ?`

	result, err := p.execute("candidates", func() (any, error) {
		rows, err := p.db.conn.QueryContext(ctx, query, userID, limit)
		if err != nil {
			return nil, fmt.Errorf("query candidates: %w", err)
		}
		defer rows.Close()

		var tracks []recommend.Track
		for rows.Next() {
			var track recommend.Track
			if err := scanTrackRow(rows.Scan, &track); err != nil {
				return nil, fmt.Errorf("scan candidate: %w", err)
			}
			tracks = append(tracks, track)
		}
		return tracks, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]recommend.Track), nil
}

// GetTrack returns one track by ID, or nil when absent.
func (p *RecommendationDataProvider) GetTrack(ctx context.Context, trackID string) (*recommend.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks t WHERE t.id = ?`

	result, err := p.execute("track", func() (any, error) {
		row := p.db.conn.QueryRowContext(ctx, query, trackID)
		var track recommend.Track
		if err := scanTrackRow(row.Scan, &track); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return (*recommend.Track)(nil), nil
			}
			return nil, fmt.Errorf("scan track: %w", err)
		}
		return &track, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*recommend.Track), nil
}

// RecordFeedback appends one feedback row. Writes bypass the breaker; a
// single lost feedback insert is cheaper than tripping reads over it.
func (p *RecommendationDataProvider) RecordFeedback(ctx context.Context, fb recommend.Feedback) error {
	start := time.Now()
	_, err := p.db.conn.ExecContext(ctx,
		`INSERT INTO recommendation_feedback
			(id, user_id, recommendation_id, track_id, feedback_type, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.UserID, fb.RecommendationID, nullable(fb.TrackID),
		fb.Type, nullable(fb.Comment), fb.CreatedAt)
	metrics.DBQueryDuration.WithLabelValues("feedback").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DataAccessErrors.WithLabelValues("feedback").Inc()
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// execute runs a read through the breaker with query timing and error
// accounting.
func (p *RecommendationDataProvider) execute(operation string, fn func() (any, error)) (any, error) {
	start := time.Now()
	result, err := p.breaker.Execute(fn)
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DataAccessErrors.WithLabelValues(operation).Inc()
		return nil, err
	}
	return result, nil
}

// trackRow holds the nullable columns of one tracks row during scanning.
type trackRow struct {
	artistName       sql.NullString
	genre            sql.NullString
	duration         sql.NullFloat64
	tempo            sql.NullFloat64
	energy           sql.NullFloat64
	valence          sql.NullFloat64
	acousticness     sql.NullFloat64
	danceability     sql.NullFloat64
	instrumentalness sql.NullFloat64
	speechiness      sql.NullFloat64
}

// scanTrackRow scans one row whose trailing columns are trackColumns.
// Leading non-track columns go in prefix. The nullable intermediates live
// on the stack, so concurrent fetches never share scan state.
func scanTrackRow(scan func(dest ...any) error, track *recommend.Track, prefix ...any) error {
	var row trackRow
	dest := append(prefix,
		&track.ID, &track.Title, &track.ArtistID, &row.artistName, &row.genre,
		&row.duration, &row.tempo, &row.energy, &row.valence, &row.acousticness,
		&row.danceability, &row.instrumentalness, &row.speechiness,
		&track.IsActive, &track.CreatedAt)
	if err := scan(dest...); err != nil {
		return err
	}
	applyTrackRow(track, &row)
	return nil
}

func applyTrackRow(track *recommend.Track, row *trackRow) {
	track.ArtistName = row.artistName.String
	track.Genre = row.genre.String
	track.DurationSeconds = nullFloat(row.duration)

	features := &recommend.AudioFeatures{
		Tempo:            nullFloat(row.tempo),
		Energy:           nullFloat(row.energy),
		Valence:          nullFloat(row.valence),
		Acousticness:     nullFloat(row.acousticness),
		Danceability:     nullFloat(row.danceability),
		Instrumentalness: nullFloat(row.instrumentalness),
		Speechiness:      nullFloat(row.speechiness),
	}
	if *features != (recommend.AudioFeatures{}) {
		track.AudioFeatures = features
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
