// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package recommend

import (
	"sort"
)

// channelAccum accumulates one audio channel across the interaction window.
// It keeps both the contributor count and the accumulated weight so either
// averaging mode can be applied at the end.
type channelAccum struct {
	sum       float64
	weightSum float64
	count     int
}

func (a *channelAccum) add(v, w float64) {
	a.sum += v * w
	a.weightSum += w
	a.count++
}

// average resolves the accumulator to a centroid value, or nil when the
// channel had no contributors. In weighted mode a zero net weight (positive
// and negative interactions cancelling out) also yields nil.
func (a *channelAccum) average(weighted bool) *float64 {
	if a.count == 0 {
		return nil
	}
	var v float64
	if weighted {
		if a.weightSum == 0 {
			return nil
		}
		v = a.sum / a.weightSum
	} else {
		v = a.sum / float64(a.count)
	}
	return &v
}

// BuildProfile derives a taste profile from the user's interaction history.
// Interactions are expected newest-first; only the first HistoryWindow
// entries contribute. The function is pure, so the engine can run it
// without synchronization.
func BuildProfile(interactions []Interaction, cfg ProfileConfig) TasteProfile {
	if cfg.HistoryWindow > 0 && len(interactions) > cfg.HistoryWindow {
		interactions = interactions[:cfg.HistoryWindow]
	}

	genreWeights := make(map[string]float64)
	artistWeights := make(map[string]float64)

	var tempo, energy, valence, acousticness, danceability,
		instrumentalness, speechiness, duration channelAccum

	for i := range interactions {
		inter := &interactions[i]
		w := inter.Type.Weight()
		track := &inter.Track

		if track.Genre != "" {
			genreWeights[track.Genre] += w
		}
		if track.ArtistID != "" {
			artistWeights[track.ArtistID] += w
		}

		if af := track.AudioFeatures; af != nil {
			accumulate(&tempo, af.Tempo, w)
			accumulate(&energy, af.Energy, w)
			accumulate(&valence, af.Valence, w)
			accumulate(&acousticness, af.Acousticness, w)
			accumulate(&danceability, af.Danceability, w)
			accumulate(&instrumentalness, af.Instrumentalness, w)
			accumulate(&speechiness, af.Speechiness, w)
		}
		accumulate(&duration, track.DurationSeconds, w)
	}

	weighted := cfg.WeightedAveraging

	return TasteProfile{
		Genres:  topWeighted(genreWeights, cfg.MaxGenres),
		Artists: topWeighted(artistWeights, cfg.MaxArtists),
		Averages: FeatureAverages{
			Tempo:            tempo.average(weighted),
			Energy:           energy.average(weighted),
			Valence:          valence.average(weighted),
			Acousticness:     acousticness.average(weighted),
			Danceability:     danceability.average(weighted),
			Instrumentalness: instrumentalness.average(weighted),
			Speechiness:      speechiness.average(weighted),
			Duration:         duration.average(weighted),
		},
		InteractionCount: len(interactions),
	}
}

func accumulate(acc *channelAccum, v *float64, w float64) {
	if v == nil {
		return
	}
	acc.add(*v, w)
}

// topWeighted returns the labels ordered by descending accumulated weight,
// ties broken by label, truncated to max. Negative net weights still rank;
// suppression works by pushing labels down the list, not by removing them.
func topWeighted(weights map[string]float64, max int) []string {
	labels := make([]string, 0, len(weights))
	for label := range weights {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		wi, wj := weights[labels[i]], weights[labels[j]]
		if wi != wj {
			return wi > wj
		}
		return labels[i] < labels[j]
	})
	if len(labels) > max {
		labels = labels[:max]
	}
	return labels
}
