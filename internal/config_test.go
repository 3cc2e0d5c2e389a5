package internal

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Session.JWTSecret = "0123456789abcdef0123"
	return cfg
}

func TestDefaultConfig_ValidWithSecret(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with a secret should pass: %v", err)
	}
}

func TestSessionConfig_SecretRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing jwt secret should fail validation")
	}
}

func TestSessionConfig_SecretTooShort(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Session.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("short jwt secret should fail validation")
	}
}

func TestGateConfig_BadPatternRejected(t *testing.T) {
	cfg := validConfig()
	cfg.Gate.Roles = map[string][]string{"admin": {"^/admin", "["}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid role pattern should fail validation")
	}
	if !strings.Contains(err.Error(), "pattern") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGateConfig_RoleWithoutPatterns(t *testing.T) {
	cfg := validConfig()
	cfg.Gate.Roles = map[string][]string{"admin": {}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("role without patterns should fail validation")
	}
}

func TestUpstreamConfig_URLRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("malformed upstream url should fail validation")
	}
}

func TestUploadsConfig_Ceiling(t *testing.T) {
	cfg := validConfig()
	cfg.Uploads.MaxUploadMB = 1024
	if err := cfg.Validate(); err == nil {
		t.Fatal("oversized upload limit should fail validation")
	}

	cfg.Uploads.MaxUploadMB = 2
	if got := cfg.Uploads.MaxUploadBytes(); got != 2<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", got, 2<<20)
	}
}

func TestHTTPConfig_Address(t *testing.T) {
	cfg := HTTPConfig{Port: 9090}
	if cfg.Address() != ":9090" {
		t.Errorf("Address = %q", cfg.Address())
	}
}
