package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// --- Context Keys ---

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

// EmailKey carries the authenticated account email in the request context.
const EmailKey contextKey = "email"

// --- JWT Claims ---

// CustomClaims includes standard JWT claims plus the account email. Keep in
// sync with the middleware in internal/api.
type CustomClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewAccessToken generates a new JWT access token for the configured account.
func NewAccessToken(email, jwtSecret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "tangent-backend",
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
