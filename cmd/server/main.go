package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tuannm99/tinysql"
	"github.com/tuannm99/tinysql/internal"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file (defaults and TINYSQL_* env when empty)")
	flag.Parse()

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := internal.NewLogger(cfg, os.Stderr)

	store, err := tinysql.Open(tinysql.Options{
		Root:        cfg.Storage.Root,
		MultiwayKey: cfg.Index.MultiwayKey,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(store.Metrics().GetPrometheusRegistry(), promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server: metrics listener stopped", "addr", cfg.Metrics.Addr, "err", err)
			}
		}()
		logger.Info("server: serving metrics", "addr", cfg.Metrics.Addr)
	}

	logger.Info("server: started", "app", cfg.AppName, "root", cfg.Storage.Root, "multiway_key", cfg.Index.MultiwayKey)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("server: shutting down")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("server: metrics shutdown", "err", err)
		}
	}
}
