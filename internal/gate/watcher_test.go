package gate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

// fileLoader compiles a rule set whose landing page is the file's content,
// standing in for the full config reload. A file containing "bad" fails.
func fileLoader(path string, calls *atomic.Int32) Loader {
	return func() (*Rules, error) {
		calls.Add(1)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		landing := strings.TrimSpace(string(data))
		if landing == "bad" {
			return nil, errors.New("unparsable rules file")
		}
		return Compile([]string{"/"}, map[string][]string{"admin": {"^/admin"}}, landing)
	}
}

func TestWatchReloadsRulesOnRewrite(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesFile, []byte("/admin/home"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	initial, err := Compile([]string{"/"}, map[string][]string{"admin": {"^/admin"}}, "/admin/home")
	if err != nil {
		t.Fatal(err)
	}
	g := New(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go Watch(ctx, g, rulesFile, fileLoader(rulesFile, &calls), logger)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(rulesFile, []byte("/admin/overview"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return g.current().landing == "/admin/overview"
	}, "rewritten rules file did not take effect")
}

func TestWatchKeepsPreviousRulesOnReloadFailure(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesFile, []byte("/admin/home"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	initial, err := Compile([]string{"/"}, map[string][]string{"admin": {"^/admin"}}, "/admin/home")
	if err != nil {
		t.Fatal(err)
	}
	g := New(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go Watch(ctx, g, rulesFile, fileLoader(rulesFile, &calls), logger)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(rulesFile, []byte("bad"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The loader must have run and been rejected.
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "reload was never attempted")

	if got := g.current().landing; got != "/admin/home" {
		t.Errorf("landing = %q, previous rules must survive a failed reload", got)
	}

	// A later good rewrite still lands.
	if err := os.WriteFile(rulesFile, []byte("/admin/home2"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return g.current().landing == "/admin/home2"
	}, "recovery rewrite did not take effect")
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesFile, []byte("/admin/home"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	initial, err := Compile([]string{"/"}, map[string][]string{"admin": {"^/admin"}}, "/admin/home")
	if err != nil {
		t.Fatal(err)
	}
	g := New(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go Watch(ctx, g, rulesFile, fileLoader(rulesFile, &calls), logger)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("noise"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("loader ran %d times for an unrelated file", calls.Load())
	}
}
