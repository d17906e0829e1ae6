// Command server starts the TechTrends blog HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpserver "github.com/fairyhunter13/techtrends/internal/adapter/httpserver"
	"github.com/fairyhunter13/techtrends/internal/adapter/observability"
	"github.com/fairyhunter13/techtrends/internal/adapter/repo/sqlite"
	"github.com/fairyhunter13/techtrends/internal/app"
	"github.com/fairyhunter13/techtrends/internal/config"
	"github.com/fairyhunter13/techtrends/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	// Connections are opened per request; the counter is the only state
	// shared between them.
	connections := observability.NewConnectionCounter()
	store := sqlite.NewAccessor(sqlite.Config{Path: cfg.DBPath, BusyTimeout: cfg.DBBusyTimeout}, connections)
	postRepo := sqlite.NewPostRepo(store)
	postSvc := usecase.NewPostService(postRepo, connections)

	srv := httpserver.NewServer(cfg, postSvc)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port), slog.String("db_path", cfg.DBPath))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
