package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trendgraph/internal/annotations"
	"trendgraph/internal/config"
	"trendgraph/internal/logger"
	"trendgraph/internal/models"
	"trendgraph/internal/palette"
	"trendgraph/internal/reports"
	"trendgraph/internal/server"
	"trendgraph/internal/storage"
)

// App wires the service components together
type App struct {
	Server   *server.Server
	registry *annotations.Registry
	storage  storage.StorageClient
}

// NewApp creates the annotation backend, snapshot storage and HTTP server
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := annotations.NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	viewer := models.Viewer{Name: cfg.ViewerName, Email: cfg.ViewerEmail}
	registry := annotations.NewRegistry(backend, viewer)

	client, err := storage.NewStorageClient(ctx, cfg)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("failed to initialize snapshot storage: %w", err)
	}
	snapshots := reports.NewSnapshotService(client, viewer, palette.ThemeFor(cfg.DefaultTheme))

	srv, err := server.NewServer(cfg, registry, snapshots)
	if err != nil {
		client.Close()
		registry.Close()
		return nil, err
	}
	return &App{Server: srv, registry: registry, storage: client}, nil
}

// Close cleans up app resources
func (a *App) Close() error {
	return errors.Join(a.Server.Close(), a.storage.Close(), a.registry.Close())
}

// configureLogger applies LOG_LEVEL and LOG_FORMAT to the global logger
func configureLogger(cfg *config.Config) {
	l := logger.Global()
	if level, ok := logger.ParseLevel(cfg.LogLevel); ok {
		l.SetLevel(level)
	}
	if format, ok := logger.ParseFormat(cfg.LogFormat); ok {
		l.SetFormat(format)
	}
}

func main() {
	log := logger.Component("main")

	if err := config.LoadDotenv(); err != nil {
		log.Fatal("Failed to load .env", err)
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}
	configureLogger(cfg)

	log.Info("Starting trend graph service", logger.Fields{
		"port":        cfg.Port,
		"environment": cfg.Environment,
		"version":     config.GetVersion(),
		"engine":      cfg.ChartEngine,
		"annotations": cfg.AnnotationBackend,
		"snapshots":   cfg.SnapshotStorage,
	})

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create application", err)
	}
	defer app.Close()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Server.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", logger.Fields{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped")
}
