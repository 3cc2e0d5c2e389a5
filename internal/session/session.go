// Package session resolves the admin identity from the access-token cookie.
// Identity is resolved once per request and carried in the request context;
// every other component (gate, upstream client, audit) reads it from there,
// so there is exactly one source of truth per navigation.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hversson/atrium/internal/apperr"
	"github.com/hversson/atrium/internal/models"
)

// Claims is the JWT payload carried by the access token.
type Claims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	jwt.RegisteredClaims
}

// Manager reads and verifies session credentials.
type Manager struct {
	cookieName string
	secret     []byte
}

// NewManager creates a Manager for the given cookie name and HS256 secret.
func NewManager(cookieName, secret string) *Manager {
	return &Manager{cookieName: cookieName, secret: []byte(secret)}
}

// FromRequest resolves the session user and raw token from the request
// cookie. A missing cookie fails closed with apperr.ErrNoSession; a token
// that does not verify fails with apperr.ErrInvalidToken.
func (m *Manager) FromRequest(r *http.Request) (*models.SessionUser, string, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, "", apperr.ErrNoSession
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
	}

	return &models.SessionUser{
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
		AvatarURL: claims.AvatarURL,
	}, c.Value, nil
}

// SetCookie stores the access token as an HttpOnly cookie. A zero ttl makes
// it a browser session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// Middleware resolves the session once and injects user and token into the
// request context. An absent or invalid credential is not an error at this
// layer; the authorization gate decides what to do with an anonymous
// request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, token, err := m.FromRequest(r); err == nil {
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the session user stored in ctx.
func UserFrom(ctx context.Context) (*models.SessionUser, bool) {
	u, ok := ctx.Value(userKey).(*models.SessionUser)
	return u, ok
}

// TokenFrom returns the raw access token stored in ctx.
func TokenFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}

// WithToken returns a context carrying token, for callers that hold a
// credential outside the HTTP request path (the MCP server's service token).
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}
