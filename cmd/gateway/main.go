// Command gateway runs the API gateway (spec §4.1): the single
// client-facing entry point that authenticates, rate-limits, and
// reverse-proxies to the identity, campaigns, validation, and briefing
// services.
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

	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/gatewayhttp"
	"github.com/orqestra/campaign-platform/internal/identitychain"
	"github.com/orqestra/campaign-platform/internal/identitysvc"
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

	issuer := identitysvc.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL)
	lookup := identitychain.NewHTTPUserLookup(cfg.IdentityServiceURL)

	chain := identitychain.NewChain(log.Logger)
	chain.Register(identitychain.NewJWTProvider(issuer, lookup))

	limiter := gatewayhttp.NewRateLimiter()
	downstream := gatewayhttp.Config{
		IdentityURL:   cfg.IdentityServiceURL,
		CampaignsURL:  cfg.CampaignsServiceURL,
		ValidationURL: cfg.ValidationServiceURL,
		BriefingURL:   cfg.BriefingServiceURL,
	}

	gw := gatewayhttp.NewGateway(chain, limiter, downstream, cfg.IsProduction(), log.Logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      gatewayhttp.NewRouter(gw, cfg.CORSOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // SSE streams run long (spec §5: 180s)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("gateway ready")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("gateway failed")
	}
}
