// Package internal provides the main application initialization and runtime logic.
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

	"github.com/starford/offcuts/internal/api"
	"github.com/starford/offcuts/internal/auth/token"
	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/marketservice"
	"github.com/starford/offcuts/internal/sse"
	pkgconfig "github.com/starford/offcuts/pkg/config"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if app.level == nil {
		app.level = new(slog.LevelVar)
	}
	app.level.Set(cfg.App.LogLevel)

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: app.level,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("photos_backend", cfg.Photos.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer backend.Close()

	photos, err := OpenPhotos(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init photos: %w", err)
	}

	codec := NewCodec(cfg, backend, logger)
	if _, err := codec.Seed(ctx, cfg.Backup.SeedFile); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svcOpts := []marketservice.Option{
		marketservice.WithPublisher(broker),
		marketservice.WithLogger(logger),
	}
	var auth *api.Authenticator
	if cfg.Auth.AuthEnabled() {
		tokens := token.New(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		svcOpts = append(svcOpts, marketservice.WithTokens(tokens))
		auth = api.NewAuthenticator(tokens)
	}
	svc := marketservice.New(backend, codec, svcOpts...)

	apiRouter := api.NewRouter(svc, auth, photos, broker)

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
	r.Get("/health/ready", readyHandler(backend, logger))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the config file and apply the log level live.
	if app.configPath != "" {
		g.Go(func() error {
			err := pkgconfig.Watch(gCtx, app.configPath, NewDefaultConfig, func(next *Config) {
				applyReload(cfg, next, app.level, logger)
			}, pkgconfig.WatchOptions{Logger: logger})
			if err != nil {
				logger.Warn("config watcher disabled", slog.String("error", err.Error()))
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
		defer signal.Stop(quit)

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

		// Stops the config watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

func readyHandler(backend graph.Backend, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := backend.Ping(ctx); err != nil {
			logger.Warn("store not ready", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// applyReload applies the parts of next that can change at runtime and
// reports the rest as requiring a restart.
func applyReload(current, next *Config, level *slog.LevelVar, logger *slog.Logger) {
	if next.App.LogLevel != level.Level() {
		logger.Info("log level changed",
			slog.String("from", level.Level().String()),
			slog.String("to", next.App.LogLevel.String()))
		level.Set(next.App.LogLevel)
	}

	rest := *next
	rest.App.LogLevel = current.App.LogLevel
	if rest != *current {
		logger.Warn("config changed, restart required to apply")
	}
}
