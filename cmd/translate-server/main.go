// Command translate-server is the main entry point for the translation
// fabric's HTTP/WebSocket front end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bergamot-go/bergamot/internal/app"
	"github.com/bergamot-go/bergamot/internal/config"
	"github.com/bergamot-go/bergamot/internal/health"
	"github.com/bergamot-go/bergamot/internal/observe"
	"github.com/bergamot-go/bergamot/internal/transport/wsapi"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "translate-server: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "translate-server: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)
	slog.Info("translate-server starting", "config", *configPath, "listen_addr", cfg.Server.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "translate-server"})
	if err != nil {
		slog.Error("failed to init telemetry", "err", err)
		return 1
	}
	defer shutdownOTel(context.Background())

	reg := config.NewRegistry()
	app.RegisterDefaultProviders(reg)

	application, err := app.New(ctx, cfg, reg, logger)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	mux := buildMux(application)

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping…")
	case err := <-serverErr:
		if err != nil {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "err", err)
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("app shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildMux assembles the HTTP surface: health/readiness probes, the
// Prometheus scrape endpoint, and the WebSocket translation front end.
func buildMux(a *app.App) *http.ServeMux {
	mux := http.NewServeMux()

	checkers := []health.Checker{
		{Name: "batching_pool", Check: func(ctx context.Context) error {
			if a.Service == nil {
				return errors.New("service not initialised")
			}
			return nil
		}},
	}
	if a.Semantic != nil {
		checkers = append(checkers, health.Checker{Name: "semantic_cache", Check: func(ctx context.Context) error {
			return nil // a.Semantic's pool manages its own reconnects
		}})
	}
	health.New(checkers...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	metrics := observe.DefaultMetrics()
	wsHandler := wsapi.NewServer(a.Service, a.Lookup, slog.Default())
	mux.Handle("/translate", observe.Middleware(metrics)(wsHandler))

	return mux
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
