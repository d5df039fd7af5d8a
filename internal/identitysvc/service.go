// Package identitysvc implements the identity service (spec §4.5): user
// registration and login, access/refresh token issuance, logout, and the
// login audit trail.
package identitysvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

// Store is the narrow persistence surface this service depends on.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token, userID string) error

	CreateLoginAudit(ctx context.Context, a *models.LoginAudit) error
}

// Service is the composition root for the identity service.
type Service struct {
	store  Store
	issuer *TokenIssuer
	refTTL time.Duration
	log    zerolog.Logger
}

func NewService(store Store, issuer *TokenIssuer, refreshTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{store: store, issuer: issuer, refTTL: refreshTTL, log: log.With().Str("component", "identitysvc").Logger()}
}

// RegisterInput carries the registration request body.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     models.UserRole
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apierr.Field(apierr.ValidationErr, "email", "email and password are required")
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to hash password")
	}
	u := &models.User{
		ID:             uuid.NewString(),
		Email:          in.Email,
		HashedPassword: hashed,
		FullName:       in.FullName,
		Role:           in.Role,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LoginResult carries the two tokens and their expirations.
type LoginResult struct {
	User             *models.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginInput carries the login request plus audit metadata.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// Login validates credentials, issues both tokens, and records a
// LoginAudit row regardless of outcome (spec §4.5).
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		s.audit(ctx, "", in, false, "user not found")
		return nil, apierr.New(apierr.AuthInvalid, "invalid email or password")
	}
	if !verifyPassword(u.HashedPassword, in.Password) {
		s.audit(ctx, u.ID, in, false, "bad password")
		return nil, apierr.New(apierr.AuthInvalid, "invalid email or password")
	}
	if !u.IsActive {
		s.audit(ctx, u.ID, in, false, "inactive user")
		return nil, apierr.New(apierr.AuthInactive, "user account is inactive")
	}

	access, accessExp, err := s.issuer.IssueAccessToken(u.Email)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to issue access token")
	}
	refresh, err := newOpaqueToken()
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to issue refresh token")
	}
	refreshExp := time.Now().UTC().Add(s.refTTL)
	if err := s.store.CreateRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     refresh,
		ExpiresAt: refreshExp,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	s.audit(ctx, u.ID, in, true, "")
	return &LoginResult{
		User: u, AccessToken: access, AccessExpiresAt: accessExp,
		RefreshToken: refresh, RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *Service) audit(ctx context.Context, userID string, in LoginInput, success bool, reason string) {
	if err := s.store.CreateLoginAudit(ctx, &models.LoginAudit{
		ID: uuid.NewString(), UserID: userID, Email: in.Email, IPAddress: in.IPAddress,
		UserAgent: in.UserAgent, Success: success, FailureReason: reason, CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.log.Error().Err(err).Msg("failed to record login audit")
	}
}

// Refresh rotates an access token from a still-valid, unrevoked refresh
// token. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	t, err := s.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, apierr.New(apierr.AuthInvalid, "invalid refresh token")
	}
	if t.IsRevoked || time.Now().UTC().After(t.ExpiresAt) {
		return "", time.Time{}, apierr.New(apierr.AuthInvalid, "refresh token expired or revoked")
	}
	u, err := s.store.GetUserByID(ctx, t.UserID)
	if err != nil {
		return "", time.Time{}, apierr.New(apierr.AuthInvalid, "user no longer exists")
	}
	if !u.IsActive {
		return "", time.Time{}, apierr.New(apierr.AuthInactive, "user account is inactive")
	}
	return s.issuer.IssueAccessToken(u.Email)
}

// Logout revokes a refresh token scoped to the calling user; revoking a
// token that does not belong to the caller, or that is already revoked,
// is reported as NotFound rather than silently succeeding.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	return s.store.RevokeRefreshToken(ctx, refreshToken, userID)
}

// Me returns the full user record for the given id.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}
