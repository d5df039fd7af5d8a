package gatewayhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/identitychain"
	"github.com/orqestra/campaign-platform/internal/models"
)

// newTestRateLimiter builds a RateLimiter over an explicit config rather
// than config.LoadRateLimitConfig()'s process-wide, sync.Once-cached
// singleton, so each test gets its own isolated rule set.
func newTestRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{buckets: make(map[limiterKey]*rate.Limiter), cfg: cfg}
}

// TestRateLimiter_ExactPathOverridesServiceAndGlobalDefaults is spec.md
// S6: config login_per_minute=10; 11 requests within a minute from the
// same client against the exact-path rule exhaust the bucket on the
// 11th, regardless of the service-default/global-default rules sitting
// behind it.
func TestRateLimiter_ExactPathOverridesServiceAndGlobalDefaults(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled: true,
		Default: config.RateLimitRule{RequestsPerMinute: 60},
		Services: map[string]config.RateLimitRule{
			"auth": {RequestsPerMinute: 20},
		},
		Paths: map[string]config.RateLimitRule{
			"/api/auth/login": {RequestsPerMinute: 10},
		},
	}
	limiter := newTestRateLimiter(cfg)

	const ip = "203.0.113.7"
	allowed := 0
	for i := 0; i < 11; i++ {
		if limiter.Allow(ip, "/api/auth/login", DownstreamIdentity) {
			allowed++
		}
	}
	if allowed != 10 {
		t.Fatalf("expected exactly 10 of 11 requests to be allowed, got %d", allowed)
	}
	if limiter.Allow(ip, "/api/auth/login", DownstreamIdentity) {
		t.Fatal("expected the bucket to still be exhausted on a 12th request")
	}
}

// TestRateLimiter_DifferentClientsHaveIndependentBuckets confirms the
// limiter key includes the client IP, not just the path.
func TestRateLimiter_DifferentClientsHaveIndependentBuckets(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled: true,
		Default: config.RateLimitRule{RequestsPerMinute: 60},
		Paths:   map[string]config.RateLimitRule{"/api/auth/login": {RequestsPerMinute: 1}},
	}
	limiter := newTestRateLimiter(cfg)

	if !limiter.Allow("10.0.0.1", "/api/auth/login", DownstreamIdentity) {
		t.Fatal("expected the first client's first request to be allowed")
	}
	if !limiter.Allow("10.0.0.2", "/api/auth/login", DownstreamIdentity) {
		t.Fatal("expected a different client's first request to be allowed independently")
	}
	if limiter.Allow("10.0.0.1", "/api/auth/login", DownstreamIdentity) {
		t.Fatal("expected the first client's second request to be throttled")
	}
}

// TestGateway_RateLimitShortCircuitsWithoutDownstreamCall is the second
// half of S6: an exhausted bucket returns 429 and never calls the
// downstream service at all.
func TestGateway_RateLimitShortCircuitsWithoutDownstreamCall(t *testing.T) {
	called := false
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer downstream.Close()

	cfg := config.RateLimitConfig{
		Enabled: true,
		Default: config.RateLimitRule{RequestsPerMinute: 60},
		Paths:   map[string]config.RateLimitRule{"/api/auth/login": {RequestsPerMinute: 1}},
	}
	limiter := newTestRateLimiter(cfg)

	chain := identitychain.NewChain(zerolog.Nop())
	chain.Register(&stubProvider{id: &identitychain.Identity{
		Subject: "u1", Email: "a@example.com", Role: models.RoleBusinessAnalyst, IsActive: true,
	}})
	gw := NewGateway(chain, limiter, Config{IdentityURL: downstream.URL}, false, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	gw.ServeHTTP(httptest.NewRecorder(), req) // first request consumes the only token

	called = false
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if called {
		t.Fatal("expected the rate-limited request to never reach the downstream service")
	}
}
