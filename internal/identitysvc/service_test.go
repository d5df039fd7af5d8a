package identitysvc

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
	"github.com/orqestra/campaign-platform/internal/store"
)

func newTestService() *Service {
	return NewService(store.NewMemoryStore(), NewTokenIssuer("test-secret", time.Minute), 24*time.Hour, zerolog.Nop())
}

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	u, err := s.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "hunter2", Role: models.RoleBusinessAnalyst})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.HashedPassword == "hunter2" {
		t.Fatal("password must be hashed, not stored in plaintext")
	}

	result, err := s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	claims, err := s.issuer.VerifyAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "ana@example.com" {
		t.Fatalf("expected subject to be the user's email, got %s", claims.Subject)
	}
}

func TestService_LoginWrongPasswordIsAuthInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	if _, err := s.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "hunter2", Role: models.RoleBusinessAnalyst}); err != nil {
		t.Fatal(err)
	}

	_, err := s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error")
	}
	if ae := apierr.As(err); ae.Kind != apierr.AuthInvalid {
		t.Fatalf("expected AuthInvalid, got %s", ae.Kind)
	}
}

func TestService_LoginInactiveUserIsAuthInactive(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	s := NewService(memStore, NewTokenIssuer("test-secret", time.Minute), 24*time.Hour, zerolog.Nop())

	u, err := s.Register(ctx, RegisterInput{Email: "bruno@example.com", Password: "hunter2", Role: models.RoleCampaignAnalyst})
	if err != nil {
		t.Fatal(err)
	}
	if err := memStore.SetUserActive(u.ID, false); err != nil {
		t.Fatal(err)
	}

	_, err = s.Login(ctx, LoginInput{Email: "bruno@example.com", Password: "hunter2"})
	if ae := apierr.As(err); ae == nil || ae.Kind != apierr.AuthInactive {
		t.Fatalf("expected AuthInactive, got %v", err)
	}
}

func TestService_RefreshRotatesAccessTokenOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	if _, err := s.Register(ctx, RegisterInput{Email: "c@example.com", Password: "hunter2", Role: models.RoleMarketingManager}); err != nil {
		t.Fatal(err)
	}
	login, err := s.Login(ctx, LoginInput{Email: "c@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatal(err)
	}

	access2, _, err := s.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access2 == login.AccessToken {
		t.Fatal("expected a freshly signed access token")
	}
}

func TestService_LogoutRevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	u, err := s.Register(ctx, RegisterInput{Email: "d@example.com", Password: "hunter2", Role: models.RoleCreativeAnalyst})
	if err != nil {
		t.Fatal(err)
	}
	login, err := s.Login(ctx, LoginInput{Email: "d@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Logout(ctx, u.ID, login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := s.Refresh(ctx, login.RefreshToken); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
}
