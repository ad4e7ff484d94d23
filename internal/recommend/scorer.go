// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package recommend

import (
	"math"
)

// ScoreBreakdown is the per-dimension result of scoring one candidate.
// A nil dimension means it did not apply (the profile or the track lacked
// the data) and was excluded from the renormalization denominator.
type ScoreBreakdown struct {
	Genre     *float64 `json:"genre,omitempty"`
	Artist    *float64 `json:"artist,omitempty"`
	Audio     *float64 `json:"audio,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	Composite float64  `json:"composite"`
}

// ScoreTrack computes the similarity between a taste profile and a
// candidate track. The composite is the weighted mean over the dimensions
// that applied; a candidate sharing no comparable data with the profile
// scores zero.
func ScoreTrack(profile *TasteProfile, track *Track, cfg ScoringConfig) ScoreBreakdown {
	var bd ScoreBreakdown
	var weightedSum, appliedWeight float64

	if track.Genre != "" {
		if rank := profile.GenreRank(track.Genre); rank >= 0 {
			s := rankDecay(rank, len(profile.Genres))
			bd.Genre = &s
			weightedSum += s * cfg.GenreWeight
			appliedWeight += cfg.GenreWeight
		}
	}

	if track.ArtistID != "" {
		if rank := profile.ArtistRank(track.ArtistID); rank >= 0 {
			s := rankDecay(rank, len(profile.Artists))
			bd.Artist = &s
			weightedSum += s * cfg.ArtistWeight
			appliedWeight += cfg.ArtistWeight
		}
	}

	if s, ok := audioCloseness(&profile.Averages, track.AudioFeatures, cfg.TempoCeiling); ok {
		bd.Audio = &s
		weightedSum += s * cfg.AudioWeight
		appliedWeight += cfg.AudioWeight
	}

	if s, ok := durationCloseness(profile.Averages.Duration, track.DurationSeconds); ok {
		bd.Duration = &s
		weightedSum += s * cfg.DurationWeight
		appliedWeight += cfg.DurationWeight
	}

	if appliedWeight > 0 {
		bd.Composite = weightedSum / appliedWeight
	}
	return bd
}

// rankDecay maps a preference-list position to a score: the top entry
// scores 1, decaying linearly toward the bottom of the list.
func rankDecay(rank, listLen int) float64 {
	return 1 - float64(rank)/float64(listLen)
}

// audioCloseness averages the per-channel closeness over every channel
// both sides supply. Returns false when no channel is comparable.
func audioCloseness(avg *FeatureAverages, feats *AudioFeatures, tempoCeiling float64) (float64, bool) {
	if feats == nil {
		return 0, false
	}

	var sum float64
	var n int

	if avg.Tempo != nil && feats.Tempo != nil {
		sum += tempoCloseness(*avg.Tempo, *feats.Tempo, tempoCeiling)
		n++
	}
	for _, ch := range [][2]*float64{
		{avg.Energy, feats.Energy},
		{avg.Valence, feats.Valence},
		{avg.Acousticness, feats.Acousticness},
		{avg.Danceability, feats.Danceability},
		{avg.Instrumentalness, feats.Instrumentalness},
		{avg.Speechiness, feats.Speechiness},
	} {
		if ch[0] != nil && ch[1] != nil {
			sum += unitCloseness(*ch[0], *ch[1])
			n++
		}
	}

	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// tempoCloseness compares BPM values against a denominator floored at the
// ceiling, so a 10 BPM gap is penalized the same at 60 BPM as at 180 BPM.
func tempoCloseness(a, b, ceiling float64) float64 {
	return 1 - math.Abs(a-b)/math.Max(math.Max(a, b), ceiling)
}

// unitCloseness compares values on a [0, 1] channel.
func unitCloseness(a, b float64) float64 {
	s := 1 - math.Abs(a-b)
	if s < 0 {
		return 0
	}
	return s
}

// durationCloseness compares track lengths proportionally to the longer
// one. Non-positive lengths are degenerate catalog data and do not apply.
func durationCloseness(a, b *float64) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	longer := math.Max(*a, *b)
	if longer <= 0 {
		return 0, false
	}
	return 1 - math.Abs(*a-*b)/longer, true
}
