// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

// Package database provides the DuckDB-backed store: catalog tracks,
// user interactions, and recommendation feedback, plus the provider the
// recommendation engine reads through.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/songifi/lyricsflip-store-sub000/internal/config"
	"github.com/songifi/lyricsflip-store-sub000/internal/logging"
)

// DB wraps the DuckDB connection.
type DB struct {
	conn *sql.DB
	cfg  config.DatabaseConfig
}

// New opens (or creates) the database and ensures the schema exists.
func New(cfg config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		// 0750 per gosec G301
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	// Auto-install/auto-load stays off so startup never reaches for the
	// network in restricted environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = threads
	}
	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(maxConns)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.createSchema(context.Background()); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Str("max_memory", cfg.MaxMemory).
		Msg("Database opened")
	return db, nil
}

// Conn exposes the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}

// createSchema creates the tables and indexes if they do not exist.
// Audio feature columns are nullable on purpose: an unanalyzed track is a
// normal catalog state, and NULL must stay distinguishable from zero.
func (db *DB) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id VARCHAR PRIMARY KEY,
			title VARCHAR NOT NULL,
			artist_id VARCHAR NOT NULL,
			artist_name VARCHAR,
			genre VARCHAR,
			duration_seconds DOUBLE,
			tempo DOUBLE,
			energy DOUBLE,
			valence DOUBLE,
			acousticness DOUBLE,
			danceability DOUBLE,
			instrumentalness DOUBLE,
			speechiness DOUBLE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS interactions (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			track_id VARCHAR NOT NULL,
			interaction_type VARCHAR NOT NULL,
			duration_seconds DOUBLE,
			context VARCHAR,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user_time
			ON interactions (user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_active_created
			ON tracks (is_active, created_at)`,
		`CREATE TABLE IF NOT EXISTS recommendation_feedback (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			recommendation_id VARCHAR NOT NULL,
			track_id VARCHAR,
			feedback_type VARCHAR NOT NULL,
			comment VARCHAR,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
