package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"tangent-backend/internal/auth"
	"tangent-backend/internal/config"
	"tangent-backend/internal/models"
)

// Custom errors for the Auth service.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAuthNotConfigured  = errors.New("authentication is not configured")
)

// AuthService authenticates the single configured user of this personal
// server and issues access tokens. There is no signup: the account is
// defined entirely by configuration.
type AuthService struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, log zerolog.Logger) *AuthService {
	return &AuthService{cfg: cfg, log: log.With().Str("component", "auth_service").Logger()}
}

// Login verifies the credentials against the configured account and returns
// a signed access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if s.cfg.AuthEmail == "" || s.cfg.AuthPasswordHash == "" {
		return nil, ErrAuthNotConfigured
	}
	if req.Email != s.cfg.AuthEmail || !auth.CheckPasswordHash(req.Password, s.cfg.AuthPasswordHash) {
		s.log.Warn().Str("email", req.Email).Msg("rejected login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(req.Email, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", req.Email).Msg("login succeeded")
	return &models.AuthResponse{AccessToken: token, Email: req.Email}, nil
}
