package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tangent-backend/internal/models"
	"tangent-backend/internal/services"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// HandleLogin verifies the configured account's credentials and returns an
// access token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, services.ErrAuthNotConfigured):
			RespondWithError(w, http.StatusServiceUnavailable, "Authentication is not configured")
		default:
			RespondWithError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}
