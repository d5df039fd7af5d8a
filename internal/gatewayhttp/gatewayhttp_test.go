package gatewayhttp

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/config"
	"github.com/orqestra/campaign-platform/internal/identitychain"
	"github.com/orqestra/campaign-platform/internal/models"
)

// disabledRateLimiter builds a RateLimiter with rate limiting turned off,
// so auth/header-propagation tests never have to worry about tripping it.
func disabledRateLimiter() *RateLimiter {
	return newTestRateLimiter(config.RateLimitConfig{Enabled: false})
}

// stubProvider always authenticates as the given identity.
type stubProvider struct{ id *identitychain.Identity }

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Enabled() bool { return true }
func (s *stubProvider) Authenticate(_ context.Context, _ *http.Request) (*identitychain.Identity, error) {
	return s.id, nil
}

// decodeHeader mirrors the downstream services' own copy of this
// function (campaignengine/handlers.go, validation/handlers.go): it
// reverses the gateway's base64:<b64> escape.
func decodeHeader(v string) string {
	const prefix = "base64:"
	if !strings.HasPrefix(v, prefix) {
		return v
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, prefix))
	if err != nil {
		return v
	}
	return string(raw)
}

// TestGateway_NonASCIIHeaderRoundTrips is spec.md S4: a full name/email
// containing non-ASCII characters survives the gateway's base64:<b64>
// escape and decodes back to the original on the downstream side.
func TestGateway_NonASCIIHeaderRoundTrips(t *testing.T) {
	const email = "josé@email.com"

	var gotEmail, gotRole string
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.Header.Get("X-User-Email")
		gotRole = r.Header.Get("X-User-Role")
		w.WriteHeader(http.StatusOK)
	}))
	defer downstream.Close()

	chain := identitychain.NewChain(zerolog.Nop())
	chain.Register(&stubProvider{id: &identitychain.Identity{
		Subject: "u1", Email: email, Role: models.RoleBusinessAnalyst, IsActive: true,
	}})

	gw := NewGateway(chain, disabledRateLimiter(), Config{CampaignsURL: downstream.URL}, false, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotEmail == email {
		t.Fatalf("expected the non-ASCII email to be base64-escaped, got it verbatim: %q", gotEmail)
	}
	if !strings.HasPrefix(gotEmail, "base64:") {
		t.Fatalf("expected a base64: prefix, got %q", gotEmail)
	}
	if decoded := decodeHeader(gotEmail); decoded != email {
		t.Fatalf("round trip failed: decode(encode(%q)) = %q", email, decoded)
	}
	// Role values are Portuguese names ("Analista de negócios"), so the
	// role header is escaped too and must decode back to the original.
	if !strings.HasPrefix(gotRole, "base64:") || decodeHeader(gotRole) != string(models.RoleBusinessAnalyst) {
		t.Fatalf("expected the non-ASCII role header to be base64-escaped and round-trip, got %q", gotRole)
	}
}

// TestToHeaderSafe_RoundTripsArbitraryStrings is the universal invariant
// at spec.md §8 item 6: decode(encode(s)) == s for any s, and encode(s)
// == s when s is pure ASCII.
func TestToHeaderSafe_RoundTripsArbitraryStrings(t *testing.T) {
	cases := []string{"ana@example.com", "josé@email.com", "日本語", "", "plain ascii text"}
	for _, s := range cases {
		encoded := toHeaderSafe(s)
		if decodeHeader(encoded) != s {
			t.Fatalf("round trip failed for %q: encoded=%q decoded=%q", s, encoded, decodeHeader(encoded))
		}
		if isPureASCII(s) && encoded != s {
			t.Fatalf("expected pure-ASCII %q to pass through unescaped, got %q", s, encoded)
		}
	}
}

func isPureASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
