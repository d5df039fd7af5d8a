// Command briefing runs the Briefing Enhancer (spec §4.4): rewrites a
// campaign objective field with an LLM and records the interaction for
// audit and approval.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orqestra/campaign-platform/internal/briefing"
	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/store"
	"github.com/orqestra/campaign-platform/internal/telemetry"
	"github.com/orqestra/campaign-platform/internal/validation"
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

	var st *store.MemoryStore
	var pg *store.PostgresStore
	var fields briefing.FieldStore
	var audit briefing.InteractionStore
	if cfg.DatabaseURL != "" {
		pg, err = store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pg.Close()
		fields, audit = pg, pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
		fields, audit = st, st
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
	} else {
		log.Warn().Msg("REDIS_URL not set, enhancement decision cache disabled")
	}

	// The enhancer shares the validation orchestrator's generic
	// generate_text tool call for its LLM round trip rather than
	// standing up a second external-tool client.
	tools := validation.NewToolClient(os.Getenv("TOOL_GATEWAY_URL"))
	agent := briefing.NewAgent(fields, audit, briefing.NewToolClientLLM(tools), briefing.NewCache(redisClient, log.Logger), log.Logger)
	handlers := &briefing.Handlers{Agent: agent, Log: log.Logger}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      briefing.NewRouter(handlers),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down briefing enhancer")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("briefing enhancer ready")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("briefing enhancer failed")
	}
}
