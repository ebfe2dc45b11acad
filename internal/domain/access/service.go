package access

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/synergy-circle/pkg/errors"
)

// Service issues and validates API access tokens.
type Service interface {
	Enabled() bool
	Issue(ctx context.Context, subject string, ttl time.Duration) (Token, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	logger *slog.Logger
}

// NewService is a wire provider for the access domain.
func NewService(cfg Config, logger *slog.Logger) Service {
	return &service{cfg: cfg, logger: logger.With("component", "access.service")}
}

func (s *service) Enabled() bool {
	return strings.TrimSpace(s.cfg.Secret) != ""
}

func (s *service) Issue(_ context.Context, subject string, ttl time.Duration) (Token, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Token{}, apperrors.New(CodeInvalidInput, "subject cannot be empty")
	}
	if !s.Enabled() {
		return Token{}, apperrors.New(CodeAuth, "token secret is not configured")
	}
	if ttl <= 0 {
		ttl = s.cfg.TokenTTL
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	expires := now.Add(ttl)
	claims := tokenClaims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Token{}, apperrors.Wrap(CodeAuth, "failed to sign token", err)
	}
	s.logger.Info("access token issued", "subject", subject, "expires_at", expires.UTC())
	return Token{Value: signed, Subject: subject, ExpiresAt: expires.UTC()}, nil
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.New(CodeInvalidToken, "token missing")
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != TokenTypeAccess {
		return Claims{}, apperrors.New(CodeInvalidToken, "token type mismatch")
	}
	return claims, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, apperrors.Wrap(CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.New(CodeInvalidToken, "token invalid")
	}
	return Claims{
		Subject:   claims.Subject,
		TokenType: claims.TokenType,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}
