package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/hversson/atrium/internal/api"
	"github.com/hversson/atrium/internal/audit"
	"github.com/hversson/atrium/internal/gate"
	"github.com/hversson/atrium/internal/mcpserver"
	"github.com/hversson/atrium/internal/richtext"
	"github.com/hversson/atrium/internal/session"
	"github.com/hversson/atrium/internal/sse"
	"github.com/hversson/atrium/internal/uploads"
	"github.com/hversson/atrium/internal/upstream"
	"github.com/hversson/atrium/pkg/config"
)

// Run starts the gateway with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("upstream", cfg.Upstream.BaseURL),
		slog.String("staging_dir", cfg.Uploads.Dir),
		slog.String("audit_path", cfg.Audit.SQLitePath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Local audit trail.
	auditLog, err := audit.Open(cfg.Audit.SQLitePath)
	if err != nil {
		return fmt.Errorf("init audit log: %w", err)
	}
	defer auditLog.Close()

	// Upload staging area.
	staging, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("init staging store: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Backend client with the tag cache.
	client := upstream.NewClient(cfg.Upstream.BaseURL, upstream.NewTagCache())

	// Session verification and route authorization.
	sessions := session.NewManager(cfg.Session.CookieName, cfg.Session.JWTSecret)
	rules, err := gate.Compile(cfg.Gate.PublicRoutes, cfg.Gate.Roles, cfg.Gate.DefaultLanding)
	if err != nil {
		return fmt.Errorf("compile gate rules: %w", err)
	}
	gt := gate.New(rules)

	apiRouter := api.NewRouter(api.Deps{
		Sessions: sessions,
		Gate:     gt,
		Client:   client,
		Staging:  staging,
		Audit:    auditLog,
		Broker:   broker,
		Cleaner:  richtext.NewPolicy(),
		Landing:  cfg.Gate.DefaultLanding,
		MaxBytes: cfg.Uploads.MaxUploadBytes(),
		Logger:   logger,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Hot-reload the gate rules when the config file changes.
	if app.configPath != "" {
		configPath := app.configPath
		g.Go(func() error {
			return gate.Watch(gCtx, gt, configPath, func() (*gate.Rules, error) {
				fresh := NewDefaultConfig()
				if err := config.Load(configPath, fresh); err != nil {
					return nil, err
				}
				return gate.Compile(fresh.Gate.PublicRoutes, fresh.Gate.Roles, fresh.Gate.DefaultLanding)
			}, logger)
		})
	}

	// Optional MCP stdio server for read-only portfolio access.
	if cfg.MCP.Enabled {
		if cfg.MCP.ServiceToken == "" {
			return fmt.Errorf("mcp enabled without service token")
		}
		mcpSrv := mcpserver.New(client, cfg.MCP.ServiceToken)
		g.Go(func() error {
			logger.Info("Starting MCP stdio server")
			if err := mcpSrv.ServeStdio(); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
