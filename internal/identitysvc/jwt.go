package identitysvc

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/orqestra/campaign-platform/internal/models"
)

// TokenType is the fixed access-token claim value (spec §6).
const TokenType = "access"

var ErrInvalidToken = errors.New("identitysvc: invalid access token")

type accessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens. It is the
// shared surface the gateway's auth chain depends on, kept separate from
// Service so it can be constructed without the rest of the service's
// dependencies.
type TokenIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL}
}

// IssueAccessToken signs a token whose subject is the user's email, per
// spec §6's token format. Each token carries a random jti, so two tokens
// issued for the same subject within the same second still differ.
func (i *TokenIssuer) IssueAccessToken(subject string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(i.accessTTL)
	claims := accessClaims{
		Type: TokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken parses and validates a token, returning its claims.
// A wrong signature, expired token, or type other than "access" is
// reported as ErrInvalidToken uniformly, matching the gateway's need to
// collapse every verification failure into one AuthInvalid kind (§7).
func (i *TokenIssuer) VerifyAccessToken(raw string) (*models.AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || claims.Type != TokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &models.AccessClaims{Subject: claims.Subject, Type: claims.Type}, nil
}
