// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package recommend

import (
	"fmt"
	"math"
)

// maxReasons caps the explanation list so clients render a short, scannable
// justification instead of every matching signal.
const maxReasons = 3

// BuildExplanation derives the user-facing reasons a track was recommended.
// Reasons are evaluated in a fixed priority order (genre, artist, energy,
// valence) and truncated to maxReasons, so genre and artist matches always
// win a slot when present.
func BuildExplanation(profile *TasteProfile, track *Track, cfg ScoringConfig) Explanation {
	exp := Explanation{
		Reasons:        make([]string, 0, maxReasons),
		MatchedGenres:  []string{},
		MatchedArtists: []string{},
	}

	if track.Genre != "" && profile.GenreRank(track.Genre) >= 0 {
		exp.Reasons = append(exp.Reasons, fmt.Sprintf("You like %s music", track.Genre))
		exp.MatchedGenres = append(exp.MatchedGenres, track.Genre)
	}

	if track.ArtistID != "" && profile.ArtistRank(track.ArtistID) >= 0 {
		label := track.ArtistName
		if label == "" {
			label = track.ArtistID
		}
		exp.Reasons = append(exp.Reasons, fmt.Sprintf("You've enjoyed music by %s", label))
		exp.MatchedArtists = append(exp.MatchedArtists, label)
	}

	if feats := track.AudioFeatures; feats != nil {
		if withinWindow(profile.Averages.Energy, feats.Energy, cfg.EnergyWindow) {
			exp.Reasons = append(exp.Reasons, "Similar energy level to your preferences")
		}
		if withinWindow(profile.Averages.Valence, feats.Valence, cfg.ValenceWindow) {
			exp.Reasons = append(exp.Reasons, "Matches your mood preferences")
		}
	}

	if len(exp.Reasons) > maxReasons {
		exp.Reasons = exp.Reasons[:maxReasons]
	}
	return exp
}

// withinWindow reports whether both values exist and sit within the window.
// A missing side never counts as a match.
func withinWindow(a, b *float64, window float64) bool {
	return a != nil && b != nil && math.Abs(*a-*b) <= window
}
