// Package identitychain provides the gateway's pluggable authentication
// boundary (spec §4.1). It is adapted from the control plane's
// API-key/service-account provider chain: same tri-state contract, now
// authenticating against this platform's JWT + identity-service pair
// instead of API keys.
package identitychain

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/models"
)

// Identity is the authenticated caller, placed in the request context by
// the gateway and propagated downstream as headers (§4.1).
type Identity struct {
	Subject     string // the user id
	Email       string
	Role        models.UserRole
	IsActive    bool
	Provider    string
	ExpiresAt   time.Time
}

// Provider authenticates an HTTP request.
//
// Contract:
//   - (*Identity, nil)  → authenticated, stop walking the chain
//   - (nil, nil)        → this provider doesn't apply, try the next one
//   - (nil, err)        → authentication was attempted and failed, reject
type Provider interface {
	Name() string
	Enabled() bool
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

// Chain walks registered providers in order until one returns an Identity.
// The gateway registers exactly one provider (JWTProvider) today; the
// shape stays open for a future second factor (service-to-service
// tokens) without the gateway's routing code changing.
type Chain struct {
	mu        sync.RWMutex
	providers []Provider
	log       zerolog.Logger
}

func NewChain(log zerolog.Logger) *Chain {
	return &Chain{log: log.With().Str("component", "identitychain").Logger()}
}

func (c *Chain) Register(p Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers = append(c.providers, p)
	c.log.Info().Str("provider", p.Name()).Bool("enabled", p.Enabled()).Msg("auth provider registered")
}

func (c *Chain) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	c.mu.RLock()
	providers := make([]Provider, len(c.providers))
	copy(providers, c.providers)
	c.mu.RUnlock()

	for _, p := range providers {
		if !p.Enabled() {
			continue
		}
		identity, err := p.Authenticate(ctx, r)
		if err != nil {
			return nil, err
		}
		if identity != nil {
			return identity, nil
		}
	}
	return nil, nil
}
