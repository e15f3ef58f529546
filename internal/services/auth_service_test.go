package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangent-backend/internal/auth"
	"tangent-backend/internal/config"
	"tangent-backend/internal/models"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := auth.HashPassword("p@ssword")
	require.NoError(t, err)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		TokenExpiration:  time.Hour,
		AuthEmail:        "me@example.com",
		AuthPasswordHash: hash,
	}
	return NewAuthService(cfg, zerolog.Nop())
}

func TestLoginSucceeds(t *testing.T) {
	svc := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "me@example.com", Password: "p@ssword",
	})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", resp.Email)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "me@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email: "other@example.com", Password: "p@ssword",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithoutConfiguredAccount(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret"}, zerolog.Nop())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "me@example.com", Password: "p@ssword",
	})
	assert.ErrorIs(t, err, ErrAuthNotConfigured)
}
