// Command validator runs the Validation Orchestrator (spec §4.3): the
// validate_channel → retrieve_content → {specs, brand, legal} →
// aggregate_verdict → persist pipeline behind POST /api/ai/analyze-piece.
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

	"github.com/orqestra/campaign-platform/internal/brand"
	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/legal"
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

	var st validation.Store
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

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
	} else {
		log.Warn().Msg("REDIS_URL not set, validation results cache falls back to the durable store only")
	}

	tools := validation.NewToolClient(os.Getenv("TOOL_GATEWAY_URL"))
	brandValidator := brand.NewValidator(config.LoadBrandPalette())
	legalAgent := legal.NewAgent(
		legal.NewInMemoryRetriever(loadLegalCorpus()),
		legal.NewHeuristicLLMClient(),
		legal.NewCache(redisClient, log.Logger),
		log.Logger,
	)
	cache := validation.NewResultCache(st, redisClient, log.Logger)
	engine := validation.NewEngine(tools, brandValidator, legalAgent, cache, log.Logger)

	handlers := &validation.Handlers{Engine: engine, Tools: tools, Log: log.Logger}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      validation.NewRouter(handlers),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 130 * time.Second, // validation's own 120s wall-clock budget plus slack
		IdleTimeout:  150 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down validator")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("validator ready")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("validator failed")
	}
}

// loadLegalCorpus seeds the in-memory retriever with the normative
// passages the legal agent checks content against. A production
// deployment points this at a real vector store instead (spec.md §1:
// the vector store is an external collaborator).
func loadLegalCorpus() []legal.Chunk {
	return []legal.Chunk{
		{
			Text:       "É vedado prometer garantia de resultado financeiro, retorno de investimento ou aprovação de crédito em qualquer peça de comunicação.",
			SourceFile: "res_ccb_4658.txt", Section: "GENERAL:garantias",
		},
		{
			Text:       "Toda comunicação deve identificar claramente a instituição remetente (Orqestra) e, quando aplicável, a instituição parceira.",
			SourceFile: "manual_compliance.txt", Section: "GENERAL:identificacao",
		},
		{
			Text:       "Mensagens de SMS e PUSH devem conter instrução de opt-out clara (ex.: 'SAIR para cancelar') quando a comunicação for de natureza promocional.",
			SourceFile: "manual_compliance.txt", Section: "SMS:opt_out",
		},
		{
			Text:       "E-mails com ofertas de crédito devem exibir o CET (Custo Efetivo Total), taxas e prazos aplicáveis de forma visível e não apenas em rodapé.",
			SourceFile: "res_ccb_4658.txt", Section: "EMAIL:cet",
		},
		{
			Text:       "Comunicações de APP push ou banner não podem induzir decisão imediata sem tempo de reflexão ('oferta expira em segundos') quando o produto envolver endividamento.",
			SourceFile: "manual_compliance.txt", Section: "APP:linguagem_coercitiva",
		},
	}
}
