// Command mkboard-web serves the board in the browser: the embedded three-lane
// page, its JSON API, a websocket snapshot stream and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MihkelHunter/mkBoard/internal/cli"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
	"github.com/MihkelHunter/mkBoard/internal/httpapi"
	"github.com/MihkelHunter/mkBoard/internal/logging"
	"github.com/MihkelHunter/mkBoard/internal/observability"
)

func main() {
	configDir := flag.String("config", "", "config directory (default $XDG_CONFIG_HOME/mkboard)")
	addr := flag.String("addr", "", "listen address, overrides bind_addr")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkboard-web: config: %v\n", err)
		os.Exit(exitcode.ConfigError)
	}
	if *addr != "" {
		cfg.BindAddr = *addr
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:           cfg.LogLevel,
		Format:          cfg.LogFormat,
		ReportTimestamp: true,
		Prefix:          "mkboard-web",
	})

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	st, closeStore, err := cli.OpenStore(runCtx, &cfg, logger)
	if err != nil {
		logger.Error("open board", "backend", cfg.Backend, "err", err)
		os.Exit(exitcode.StorageError)
	}
	defer closeStore()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	api := httpapi.New(cfg, st, metrics, logger)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.BindAddr, "backend", cfg.Backend, "tasks", len(st.Tasks()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	// Websocket connections are hijacked and not tracked by Shutdown.
	api.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "err", err)
		_ = httpServer.Close()
	}
}
