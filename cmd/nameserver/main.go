// Command nameserver serves an authoritative zone (and any delegated
// sub-zones) over UDP and TCP.
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

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poyrazK/dnscore/internal/authority"
	"github.com/poyrazK/dnscore/internal/config"
	"github.com/poyrazK/dnscore/internal/dnsmsg"
	"github.com/poyrazK/dnscore/internal/metrics"
	"github.com/poyrazK/dnscore/internal/transport"
	"github.com/poyrazK/dnscore/internal/zone"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args); err != nil {
		slog.Error("nameserver failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s <config.json>", filepath.Base(args[0]))
	}

	cfg, err := config.LoadNameserverConfig(args[1])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	mz, err := loadZone(cfg.Zone)
	if err != nil {
		return fmt.Errorf("load zone: %w", err)
	}
	if err := mz.Validate(); err != nil {
		return fmt.Errorf("validate zone: %w", err)
	}
	logger.Info("zone loaded", "zone", cfg.Zone.Zone, "sub_zones", len(cfg.Zone.SubZones))

	handler := authority.NewHandler(mz)

	srv, err := transport.NewServer(
		loggingHandler(handler.Handle, logger),
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
	logger.Info("nameserver listening",
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

// loadZone reads the authoritative zone file and every delegated
// sub-zone file named in cfg, returning them wired up as one
// ManagedZone.
func loadZone(cfg config.ZoneConf) (*zone.ManagedZone, error) {
	zoneTop, err := dnsmsg.NewName(cfg.Zone)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("read zone file %s: %w", cfg.File, err)
	}

	includeFn := func(filename string) (string, error) {
		data, err := os.ReadFile(filepath.Join(filepath.Dir(cfg.File), filename))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	auth, err := zone.ParseAuth(string(src), zoneTop, cfg.StartingTTL, includeFn)
	if err != nil {
		return nil, fmt.Errorf("parse zone %s: %w", cfg.Zone, err)
	}

	mz := &zone.ManagedZone{Auth: auth}
	for _, szCfg := range cfg.SubZones {
		szTop, err := dnsmsg.NewName(szCfg.Zone)
		if err != nil {
			return nil, err
		}
		szSrc, err := os.ReadFile(szCfg.File)
		if err != nil {
			return nil, fmt.Errorf("read sub-zone file %s: %w", szCfg.File, err)
		}
		sz, err := zone.ParseSubZone(string(szSrc), szTop, szCfg.StartingTTL, szCfg.MinTTL)
		if err != nil {
			return nil, fmt.Errorf("parse sub-zone %s: %w", szCfg.Zone, err)
		}
		mz.SubZones = append(mz.SubZones, sz)
	}
	return mz, nil
}

// loggingHandler wraps h to tag every request with a correlation id,
// time its handling, and record query/rcode metrics.
func loggingHandler(h transport.Handler, logger *slog.Logger) transport.Handler {
	return func(req *dnsmsg.Message) *dnsmsg.Message {
		reqID := uuid.New().String()
		start := time.Now()

		resp := h(req)

		qtype, qname := "?", "?"
		if len(req.Questions) == 1 {
			qtype = req.Questions[0].Type.String()
			qname = string(req.Questions[0].Name)
		}
		metrics.QueriesTotal.WithLabelValues(qtype, rcodeLabel(resp.Header.RCode), "nameserver").Inc()
		metrics.QueryDuration.WithLabelValues("nameserver").Observe(time.Since(start).Seconds())

		logger.Debug("query answered",
			"request_id", reqID, "name", qname, "qtype", qtype,
			"rcode", rcodeLabel(resp.Header.RCode), "duration", time.Since(start))
		return resp
	}
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

func rcodeLabel(rc dnsmsg.RCode) string {
	switch rc {
	case dnsmsg.RCodeNoError:
		return "NOERROR"
	case dnsmsg.RCodeFormErr:
		return "FORMERR"
	case dnsmsg.RCodeServFail:
		return "SERVFAIL"
	case dnsmsg.RCodeNxDomain:
		return "NXDOMAIN"
	case dnsmsg.RCodeNotImp:
		return "NOTIMP"
	case dnsmsg.RCodeRefused:
		return "REFUSED"
	default:
		return "UNKNOWN"
	}
}

func startMetricsServer(logger *slog.Logger) *http.Server {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9153"
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
