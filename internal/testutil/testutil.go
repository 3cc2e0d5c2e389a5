// Package testutil provides shared helpers for minting session tokens and
// setting up staging stores in tests.
package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hversson/atrium/internal/models"
	"github.com/hversson/atrium/internal/uploads"
)

// Secret is the HS256 secret used across tests.
const Secret = "test-secret-0123456789abcdef"

// MintToken signs an access token for user with the shared test secret.
func MintToken(t *testing.T, user models.SessionUser) string {
	t.Helper()
	claims := jwt.MapClaims{
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"avatarUrl": user.AvatarURL,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// AdminUser is a ready-made admin identity for tests.
func AdminUser() models.SessionUser {
	return models.SessionUser{
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  "admin",
	}
}

// StagingStore creates a temp-dir staging store cleaned up with the test.
func StagingStore(t *testing.T) *uploads.Store {
	t.Helper()
	store, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("staging store: %v", err)
	}
	return store
}
