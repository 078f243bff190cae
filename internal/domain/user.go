package domain

import (
	"strings"
	"time"
)

// DefaultAdminEmail is the admin identity used when none is configured.
const DefaultAdminEmail = "admin@example.com"

// User is a registered storefront account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdminEmail reports whether email is the configured admin identity.
func IsAdminEmail(email, adminEmail string) bool {
	return email != "" && strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(adminEmail))
}

// AuthToken is the bearer token issued on signup and login.
type AuthToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
