package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"

	observabilityShutdownTimeout = 5 * time.Second
)

// HealthReport is the /healthz payload.
type HealthReport struct {
	Status  string `json:"status"`
	Server  string `json:"server,omitempty"`
	Version string `json:"version,omitempty"`
	Tools   int    `json:"tools"`
}

type HTTPServerOptions struct {
	Addr          string
	EnableMetrics bool
	EnableHealthz bool
	// Health reports readiness; nil always reports ok.
	Health   func() HealthReport
	Registry prometheus.Gatherer
}

// ObservabilityHandler serves /metrics and /healthz as enabled in opts.
func ObservabilityHandler(opts HTTPServerOptions) http.Handler {
	mux := http.NewServeMux()
	if opts.EnableMetrics {
		gatherer := opts.Registry
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if opts.EnableHealthz {
		mux.Handle("GET /healthz", healthHandler(opts.Health))
	}
	return mux
}

// StartHTTPServer listens on opts.Addr and serves until ctx ends. It
// returns immediately when neither endpoint is enabled, and fails fast when
// the address cannot be bound.
func StartHTTPServer(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.EnableMetrics && !opts.EnableHealthz {
		return nil
	}

	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("observability server failed to start: %w", err)
	}

	server := &http.Server{
		Handler:           ObservabilityHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("observability server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("metrics", opts.EnableMetrics),
		zap.Bool("healthz", opts.EnableHealthz),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("observability server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("observability server shutdown error", zap.Error(err))
			return err
		}
		logger.Info("observability server stopped")
		return nil
	}
}

func healthHandler(health func() HealthReport) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		report := HealthReport{Status: HealthStatusOK}
		if health != nil {
			report = health()
		}

		status := http.StatusOK
		if report.Status != HealthStatusOK {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
}
