// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/venapictures/vena/internal/api"
	"github.com/venapictures/vena/internal/apperr"
	"github.com/venapictures/vena/internal/console"
	"github.com/venapictures/vena/internal/fixtures"
	"github.com/venapictures/vena/internal/mcpserver"
	"github.com/venapictures/vena/internal/metrics"
	"github.com/venapictures/vena/internal/session"
	"github.com/venapictures/vena/internal/sse"
	"github.com/venapictures/vena/internal/storage"
)

const flagWatchDebounce = 100 * time.Millisecond

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(app.logOutput, cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("storage_path", cfg.Storage.Path),
		slog.Bool("api_auth", cfg.Auth.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	provider, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	metrics.SetClientCounter(broker.ClientCount)

	c, err := newConsole(cfg, provider, logger, console.WithEvents(broker))
	if err != nil {
		return err
	}
	defer c.Close()

	apiRouter := api.NewRouter(c, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := provider.Get(session.FlagKey); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			logger.Warn("storage not ready", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"storage unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Pick up session flag changes made by other processes sharing the
	// storage directory.
	if fs, ok := provider.(*storage.FS); ok {
		g.Go(func() error {
			return storage.Watch(gCtx, fs.Root(), flagWatchDebounce, logger, func(key string) {
				if key != session.FlagKey {
					return
				}
				if err := c.Session.Resync(); err != nil {
					logger.Error("session resync failed", slog.String("error", err.Error()))
				}
			})
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

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the console over MCP on stdin/stdout until the client
// disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(app.logOutput, cfg)

	provider, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	c, err := newConsole(cfg, provider, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("Starting MCP server on stdio", slog.String("version", app.version))
	return mcpserver.New(c, app.version).ServeStdio()
}

func newApplication(defaultOutput io.Writer, opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: defaultOutput}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the structured JSON logger and makes it the default.
func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func openStorage(cfg *Config) (storage.Provider, error) {
	if cfg.Storage.Backend == storage.BackendFS {
		if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	provider, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return provider, nil
}

func newConsole(cfg *Config, provider storage.Provider, logger *slog.Logger, opts ...console.Option) (*console.Console, error) {
	ds, err := fixtures.LoadFile(cfg.Fixtures.Path)
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	opts = append([]console.Option{
		console.WithLogger(logger),
		console.WithNotificationTTL(cfg.Notifications.DefaultTTL),
		console.WithSessionOptions(
			session.WithCredentials(cfg.Session.Email, cfg.Session.Password),
			session.WithDelay(cfg.Session.Delay),
		),
	}, opts...)
	c, err := console.New(ds, session.NewFlagStore(provider), opts...)
	if err != nil {
		return nil, fmt.Errorf("init console: %w", err)
	}
	return c, nil
}
