package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"gnosislens-api/internal/cache"
	"gnosislens-api/internal/model"
)

const (
	// TokenPrefix is the prefix for all session tokens.
	TokenPrefix = "glt_"

	// DefaultSessionTTL is the default session lifetime.
	DefaultSessionTTL = 24 * time.Hour

	tokenKeyPrefix = "session:"
)

// ErrInvalidToken covers malformed, unknown and expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and validates session tokens stored in a Cache.
type TokenService struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewTokenService creates a new token service.
func NewTokenService(c cache.Cache, ttl time.Duration, log zerolog.Logger) *TokenService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{
		cache: c,
		ttl:   ttl,
		now:   time.Now,
		log:   log.With().Str("service", "token").Logger(),
	}
}

// GenerateToken creates a session token for data.
func (s *TokenService) GenerateToken(ctx context.Context, data model.SessionData) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := TokenPrefix + hex.EncodeToString(tokenBytes)

	data.CreatedAt = s.now().UTC()
	data.ExpiresAt = data.CreatedAt.Add(s.ttl)

	if err := s.store(ctx, token, data); err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", data.UserID).Time("expires", data.ExpiresAt).Msg("Session created")
	return token, nil
}

// ValidateToken returns the session for token or ErrInvalidToken.
func (s *TokenService) ValidateToken(ctx context.Context, token string) (*model.SessionData, error) {
	if !strings.HasPrefix(token, TokenPrefix) || len(token) == len(TokenPrefix) {
		return nil, ErrInvalidToken
	}

	raw, err := s.cache.Get(ctx, tokenKeyPrefix+token)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var data model.SessionData
	if err := msgpack.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse token data: %w", err)
	}

	if s.now().After(data.ExpiresAt) {
		_ = s.cache.Delete(ctx, tokenKeyPrefix+token)
		return nil, ErrInvalidToken
	}
	return &data, nil
}

// RevokeToken deletes a token.
func (s *TokenService) RevokeToken(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, tokenKeyPrefix+token)
}

// RefreshToken extends a valid token by the session TTL.
func (s *TokenService) RefreshToken(ctx context.Context, token string) (*model.SessionData, error) {
	data, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	data.ExpiresAt = s.now().UTC().Add(s.ttl)
	if err := s.store(ctx, token, *data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *TokenService) store(ctx context.Context, token string, data model.SessionData) error {
	raw, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize token data: %w", err)
	}
	if err := s.cache.Set(ctx, tokenKeyPrefix+token, raw, s.ttl); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}
