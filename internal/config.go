// Package internal provides the application configuration and runtime wiring.
package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config represents the gateway configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Upstream UpstreamConfig    `yaml:"upstream"`
	Session  SessionConfig     `yaml:"session"`
	Gate     GateConfig        `yaml:"gate"`
	Uploads  UploadsConfig     `yaml:"uploads"`
	Audit    AuditConfig       `yaml:"audit"`
	MCP      MCPConfig         `yaml:"mcp"`
}

// Validate validates the full configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Upstream.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Gate.Validate(); err != nil {
		return err
	}
	if err := c.Uploads.Validate(); err != nil {
		return err
	}
	return c.Audit.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// UpstreamConfig points at the portfolio REST backend this gateway fronts.
type UpstreamConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Validate validates the upstream configuration.
func (c *UpstreamConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

// SessionConfig holds the session cookie and token verification settings.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	JWTSecret  string `yaml:"jwt_secret"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CookieName, validation.Required),
		validation.Field(&c.JWTSecret, validation.Required, validation.Length(16, 0)),
	)
}

// GateConfig describes the route authorization rules: which paths are
// public and which path patterns each role may reach.
type GateConfig struct {
	PublicRoutes   []string            `yaml:"public_routes"`
	Roles          map[string][]string `yaml:"roles"`
	DefaultLanding string              `yaml:"default_landing"`
}

// Validate validates the gate configuration, including that every role
// pattern compiles as a regular expression.
func (c *GateConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PublicRoutes, validation.Required),
		validation.Field(&c.Roles, validation.Required),
		validation.Field(&c.DefaultLanding, validation.Required),
	); err != nil {
		return err
	}
	for role, patterns := range c.Roles {
		if len(patterns) == 0 {
			return fmt.Errorf("gate: role %q has no route patterns", role)
		}
		for _, p := range patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("gate: role %q pattern %q: %w", role, p, err)
			}
		}
	}
	return nil
}

// UploadsConfig holds the image staging settings.
type UploadsConfig struct {
	Dir         string `yaml:"dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

// MaxUploadBytes returns the per-request upload ceiling in bytes.
func (c *UploadsConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(1), validation.Max(int64(512))),
	)
}

// AuditConfig holds the local audit trail settings.
type AuditConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the audit configuration.
func (c *AuditConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.Required),
	)
}

// MCPConfig controls the optional MCP stdio server.
type MCPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceToken string `yaml:"service_token"`
}

// NewDefaultConfig returns a Config with development defaults. The JWT
// secret intentionally has no default: it must come from the environment or
// the config file.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:5000/api/v1",
		},
		Session: SessionConfig{
			CookieName: "accessToken",
		},
		Gate: GateConfig{
			PublicRoutes:   []string{"/"},
			Roles:          map[string][]string{"admin": {"^/admin"}},
			DefaultLanding: "/admin/home",
		},
		Uploads: UploadsConfig{
			Dir:         "./staging",
			MaxUploadMB: 50,
		},
		Audit: AuditConfig{
			SQLitePath: "./atrium-audit.db",
		},
	}
}
