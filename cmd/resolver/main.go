// Command resolver answers queries by recursively walking the DNS
// hierarchy from the root hints down, caching what it learns.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poyrazK/dnscore/internal/cache"
	"github.com/poyrazK/dnscore/internal/config"
	"github.com/poyrazK/dnscore/internal/metrics"
	"github.com/poyrazK/dnscore/internal/resolver"
	"github.com/poyrazK/dnscore/internal/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args); err != nil {
		slog.Error("resolver failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s <config.json>", filepath.Base(args[0]))
	}

	cfg, err := config.LoadResolverConfig(args[1])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	recordCache := cache.NewRecordCache(cfg.Resolver.CacheConf.CleanPeriod())
	defer recordCache.Stop()

	res := resolver.New(recordCache, cfg.Resolver.ToResolverConfig(), cfg.Resolver.TraceConf.ToTraceParams())
	handler := newQueryHandler(res, logger, cfg.Resolver.TraceConf.Color)

	srv, err := transport.NewServer(
		handler.Handle,
		cfg.UDPServer.ToTransportUDPConfig(),
		cfg.TCPServer.ToTransportTCPConfig(),
		logger,
	)
	if err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	metricsSrv := startMetricsServer(logger)
	go sampleQueueDepth(ctx, srv)

	go srv.Run()
	logger.Info("resolver listening",
		"udp_port", cfg.UDPServer.Port, "tcp_port", cfg.TCPServer.Port)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("transport shutdown", "error", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// sampleQueueDepth periodically publishes each front-end's worker-pool
// backlog until ctx is done.
func sampleQueueDepth(ctx context.Context, srv *transport.Server) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.WorkerPoolQueueDepth.WithLabelValues("udp").Set(float64(srv.UDPQueueDepth()))
			metrics.WorkerPoolQueueDepth.WithLabelValues("tcp").Set(float64(srv.TCPQueueDepth()))
		}
	}
}

func startMetricsServer(logger *slog.Logger) *http.Server {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9154"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
