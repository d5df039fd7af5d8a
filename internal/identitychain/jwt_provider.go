package identitychain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/identitysvc"
	"github.com/orqestra/campaign-platform/internal/models"
)

// UserLookup resolves the full user record for a verified token's
// subject (email). In production this is an HTTP call to the identity
// service's /internal/users/by-email endpoint (HTTPUserLookup); tests can
// substitute an in-process Store-backed implementation.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// JWTProvider verifies the gateway's bearer/cookie access token locally
// (shared HS256 secret, spec §6) and then confirms the subject is still
// active by resolving it through UserLookup, matching the Python
// gateway's decode-then-confirm-with-auth-service flow.
type JWTProvider struct {
	issuer  *identitysvc.TokenIssuer
	lookup  UserLookup
	enabled bool
}

func NewJWTProvider(issuer *identitysvc.TokenIssuer, lookup UserLookup) *JWTProvider {
	return &JWTProvider{issuer: issuer, lookup: lookup, enabled: true}
}

func (p *JWTProvider) Name() string    { return "jwt" }
func (p *JWTProvider) Enabled() bool   { return p.enabled }

func (p *JWTProvider) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, nil
	}
	claims, err := p.issuer.VerifyAccessToken(token)
	if err != nil {
		return nil, apierr.New(apierr.AuthInvalid, "invalid or expired token")
	}
	u, err := p.lookup.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, identitysvc.ErrInvalidToken) {
			return nil, apierr.New(apierr.AuthInvalid, "token subject could not be resolved")
		}
		return nil, err
	}
	return &Identity{
		Subject:   u.ID,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		Provider:  p.Name(),
		ExpiresAt: time.Now().UTC(),
	}, nil
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie("access_token"); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// HTTPUserLookup implements UserLookup by calling the identity service's
// /internal/users/by-email endpoint over HTTP, for deployments where the gateway and the
// identity service are separate processes.
type HTTPUserLookup struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPUserLookup(baseURL string) *HTTPUserLookup {
	return &HTTPUserLookup{BaseURL: strings.TrimRight(baseURL, "/"), Client: &http.Client{Timeout: 10 * time.Second}}
}

func (h *HTTPUserLookup) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/internal/users/by-email", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("email", email)
	req.URL.RawQuery = q.Encode()

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, identitysvc.ErrInvalidToken
	}
	var u models.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
