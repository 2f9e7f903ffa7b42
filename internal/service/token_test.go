package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnosislens-api/internal/cache"
	"gnosislens-api/internal/model"
)

func TestTokenService_Lifecycle(t *testing.T) {
	mem := cache.NewMemoryCache(0)
	defer mem.Close()
	svc := NewTokenService(mem, time.Hour, zerolog.Nop())
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, model.SessionData{UserID: "u1", Username: "sara", HomeCurrency: "USD"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, TokenPrefix))
	assert.Len(t, token, len(TokenPrefix)+64)

	data, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", data.UserID)
	assert.Equal(t, "USD", data.HomeCurrency)
	assert.WithinDuration(t, data.CreatedAt.Add(time.Hour), data.ExpiresAt, time.Second)

	require.NoError(t, svc.RevokeToken(ctx, token))
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsMalformed(t *testing.T) {
	mem := cache.NewMemoryCache(0)
	defer mem.Close()
	svc := NewTokenService(mem, time.Hour, zerolog.Nop())

	for _, token := range []string{"", "glt_", "abc", "vht_123"} {
		_, err := svc.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestTokenService_ExpiredSessionRejected(t *testing.T) {
	mem := cache.NewMemoryCache(0)
	defer mem.Close()
	svc := NewTokenService(mem, time.Hour, zerolog.Nop())
	now := time.Now()
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, model.SessionData{UserID: "u1"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Refresh(t *testing.T) {
	mem := cache.NewMemoryCache(0)
	defer mem.Close()
	svc := NewTokenService(mem, time.Hour, zerolog.Nop())
	now := time.Now()
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, model.SessionData{UserID: "u1"})
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	data, err := svc.RefreshToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, data.ExpiresAt.After(now.Add(59*time.Minute)))
}
