// Package gatewayhttp implements the API gateway's single catch-all
// reverse proxy (spec §4.1): one entry point for every client request,
// authenticating, rate-limiting, and routing to one of four downstream
// services before relaying the response back untouched.
package gatewayhttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/identitychain"
)

// Gateway wires the identity chain, rate limiter, and downstream config
// onto the catch-all handler.
type Gateway struct {
	Chain      *identitychain.Chain
	Limiter    *RateLimiter
	Downstream Config
	Client     *http.Client
	Production bool
	Log        zerolog.Logger
}

func NewGateway(chain *identitychain.Chain, limiter *RateLimiter, downstream Config, production bool, log zerolog.Logger) *Gateway {
	return &Gateway{
		Chain:      chain,
		Limiter:    limiter,
		Downstream: downstream,
		Client:     &http.Client{Timeout: proxyTimeout},
		Production: production,
		Log:        log.With().Str("component", "gatewayhttp").Logger(),
	}
}

// NewRouter builds the gateway's chi router: the standard middleware
// stack, CORS, a root and health endpoint, and the catch-all proxy under
// /api/*.
func NewRouter(gw *Gateway, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"orqestra-gateway"}`))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.HandleFunc("/api/*", gw.ServeHTTP)
	return r
}

// ServeHTTP is the catch-all gateway handler: spec §4.1's full pipeline
// in order — OPTIONS short-circuit, resolve downstream, rate limit,
// skip-auth check and authenticate, method allow-list, proxy — matching
// main.py's gateway() route handler.
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	path := r.URL.Path
	downstream := resolveDownstream(path)

	ip := clientIP(r)
	if !gw.Limiter.Allow(ip, path, downstream) {
		rule := gw.Limiter.ruleFor(path, downstream)
		w.Header().Set("Retry-After", retryAfter(rule))
		apierr.WriteJSON(w, apierr.New(apierr.RateLimited, "rate limit exceeded"))
		return
	}

	var identity *identitychain.Identity
	if !isSkipAuth(r.Method, path) {
		id, err := gw.Chain.Authenticate(r.Context(), r)
		if err != nil {
			apierr.WriteJSON(w, apierr.As(err))
			return
		}
		if id == nil {
			apierr.WriteJSON(w, apierr.New(apierr.AuthMissing, "missing or invalid credentials"))
			return
		}
		if !id.IsActive {
			apierr.WriteJSON(w, apierr.New(apierr.AuthInactive, "user account is inactive"))
			return
		}
		identity = id
	}

	if !allowedProxyMethods[r.Method] {
		apierr.WriteJSON(w, apierr.New(apierr.ValidationErr, "method not allowed"))
		return
	}

	target := strings.TrimRight(gw.Downstream.urlFor(downstream), "/") + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	start := time.Now()
	ProxyRequest(w, r, gw.Client, target, identity, gw.Production)
	gw.Log.Info().
		Str("method", r.Method).
		Str("path", path).
		Str("downstream", string(downstream)).
		Dur("elapsed", time.Since(start)).
		Msg("proxied request")
}
