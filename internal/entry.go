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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/daybook/internal/api"
	"github.com/starford/daybook/internal/inbox"
	"github.com/starford/daybook/internal/journalservice"
	"github.com/starford/daybook/internal/mcpserver"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/storage"
	"github.com/starford/daybook/internal/store"
)

// runtime is the set of components every command needs.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *store.DB
	loc    *time.Location
}

func newRuntime(opts ...Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	loc, err := cfg.Journal.Location()
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("timezone", loc.String()),
		slog.String("export_dir", cfg.Journal.ExportDir),
		slog.String("inbox_dir", cfg.Journal.InboxDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, db: db, loc: loc}, nil
}

func (rt *runtime) service(opts ...journalservice.Option) *journalservice.Service {
	base := []journalservice.Option{
		journalservice.WithLocation(rt.loc),
		journalservice.WithLogger(rt.logger),
	}
	return journalservice.NewService(rt.db, append(base, opts...)...)
}

// Run starts the HTTP server, and the inbox watcher when an inbox is
// configured, until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}
	defer rt.db.Close()
	cfg, logger := rt.cfg, rt.logger

	// SSE broker announces imports and exports.
	broker := sse.NewBroker(30 * time.Second)
	defer broker.Close()

	svc := rt.service(journalservice.WithNotifier(broker))
	apiRouter := api.NewRouter(svc, rt.db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	var watcher *inbox.Watcher
	if cfg.Journal.InboxDir != "" {
		dir, err := storage.NewFS(cfg.Journal.InboxDir)
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		watcher = inbox.New(svc, dir, logger)
	}

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if watcher != nil {
		g.Go(func() error {
			if err := watcher.Run(gCtx); err != nil {
				return fmt.Errorf("inbox watcher: %w", err)
			}
			return nil
		})
	}

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

		// Streaming SSE handlers only return once the broker closes.
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

// errShutdown cancels the group so the inbox watcher stops with the server.
var errShutdown = errors.New("shutdown")

// Export writes one journal document into outDir, or the configured export
// directory when outDir is empty, and returns the written file's path.
func Export(ctx context.Context, query, outDir string, opts ...Option) (string, error) {
	rt, err := newRuntime(opts...)
	if err != nil {
		return "", err
	}
	defer rt.db.Close()

	if outDir == "" {
		outDir = rt.cfg.Journal.ExportDir
	}
	dir, err := storage.NewFS(outDir)
	if err != nil {
		return "", fmt.Errorf("init export dir: %w", err)
	}

	exp, err := rt.service().Export(ctx, query)
	if err != nil {
		return "", err
	}
	if err := dir.Write(exp.Filename, exp.Content); err != nil {
		return "", err
	}
	return filepath.Join(dir.Root(), exp.Filename), nil
}

// Import reads the journal file at path and imports it.
func Import(ctx context.Context, path string, opts ...Option) (*journalservice.ImportSummary, error) {
	rt, err := newRuntime(opts...)
	if err != nil {
		return nil, err
	}
	defer rt.db.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rt.service().Import(ctx, filepath.Base(path), data)
}

// ServeMCP serves the journal tools over stdio until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(opts...)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	exports, err := storage.NewFS(rt.cfg.Journal.ExportDir)
	if err != nil {
		return fmt.Errorf("init export dir: %w", err)
	}

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.service(), exports).ServeStdio()
}
