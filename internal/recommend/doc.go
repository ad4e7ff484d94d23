// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

// Package recommend implements content-based track recommendations.
//
// The pipeline per request: fetch the user's recent interaction history
// and the unseen-candidate pool concurrently, fold the history into a
// weighted taste profile (top genres, top artists, audio centroid), score
// every candidate against the profile across four renormalized dimensions
// (genre, artist, audio closeness, duration), discard everything at or
// below the relevance floor, rank, truncate, and attach human-readable
// explanations.
//
// The engine is stateless across requests apart from a TTL response
// cache. Store failures degrade to an empty recommendation list rather
// than failing the request; cold-start users (no usable history) get the
// same empty list without it counting as an error.
package recommend
