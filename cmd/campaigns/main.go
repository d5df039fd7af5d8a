// Command campaigns runs the Campaign Workflow Engine (spec §4.2):
// campaign CRUD, comments, creative-piece content, review lifecycle.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orqestra/campaign-platform/internal/campaignengine"
	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/objectstore"
	"github.com/orqestra/campaign-platform/internal/store"
	"github.com/orqestra/campaign-platform/internal/telemetry"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer shutdownTracing(ctx)

	var st campaignengine.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pg.Close()
		st = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	var objects campaignengine.ObjectStore
	if cfg.ObjectStoreBucket != "" {
		s3Store, err := objectstore.NewS3Store(ctx, cfg.ObjectStoreBucket, cfg.ObjectStoreRegion)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize object store")
		}
		objects = s3Store
	} else {
		log.Warn().Msg("CREATIVE_CONTENT_BUCKET not set, using in-memory object store")
		objects = objectstore.NewMemoryStore()
	}

	svc := campaignengine.NewService(st, objects, log.Logger)
	handlers := &campaignengine.Handlers{Service: svc, Log: log.Logger}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      campaignengine.NewRouter(handlers),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down campaigns service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("campaigns service ready")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("campaigns service failed")
	}
}
