// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

// Command server runs the recommendation HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/songifi/lyricsflip-store-sub000/internal/api"
	"github.com/songifi/lyricsflip-store-sub000/internal/config"
	"github.com/songifi/lyricsflip-store-sub000/internal/database"
	"github.com/songifi/lyricsflip-store-sub000/internal/logging"
	"github.com/songifi/lyricsflip-store-sub000/internal/recommend"
	"github.com/songifi/lyricsflip-store-sub000/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", api.Version).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting recommendation service")

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Database close failed")
		}
	}()

	provider := database.NewRecommendationDataProvider(db)

	engine, err := recommend.NewEngine(cfg.EngineConfig(), logging.Logger())
	if err != nil {
		return err
	}
	engine.SetDataProvider(provider)

	handler := api.NewHandler(cfg, engine, provider, db)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}
