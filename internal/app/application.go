package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/gateway"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

// Application wires the gateway and its observability listener.
type Application struct {
	ctx      context.Context
	cfg      domain.Config
	serve    ServeConfig
	logger   *zap.Logger
	registry *prometheus.Registry
	gateway  *gateway.Gateway
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context  context.Context
	Config   domain.Config
	Serve    ServeConfig
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Gateway  *gateway.Gateway
}

// NewApplication constructs the application runtime.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Application{
		ctx:      ctx,
		cfg:      opts.Config,
		serve:    opts.Serve,
		logger:   opts.Logger,
		registry: opts.Registry,
		gateway:  opts.Gateway,
	}
}

// Run serves the configured transport and blocks until shutdown. An
// observability listener that fails to start is logged and skipped.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	transport := a.serve.Transport
	if transport == "" {
		transport = TransportStdio
	}
	a.logger.Info("server starting",
		zap.String("transport", transport),
		zap.String("host", a.cfg.Workspace.Host),
		zap.String("token_source", a.cfg.Workspace.TokenSource),
		zap.Int("tools", len(a.gateway.Tools())),
	)

	obs := a.cfg.Observability
	go func() {
		err := telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
			Addr:          obs.ListenAddress,
			EnableMetrics: obs.Metrics,
			EnableHealthz: obs.Healthz,
			Health:        a.healthReport,
			Registry:      a.registry,
		}, a.logger)
		if err != nil {
			a.logger.Warn("observability server unavailable", zap.Error(err))
		}
	}()

	switch transport {
	case TransportStdio:
		return a.gateway.Run(ctx)
	case TransportStreamableHTTP:
		return a.gateway.RunStreamableHTTP(ctx, a.serve.HTTP)
	default:
		return fmt.Errorf("unsupported transport: %s", transport)
	}
}

func (a *Application) healthReport() telemetry.HealthReport {
	tools := len(a.gateway.Tools())
	status := telemetry.HealthStatusOK
	if tools == 0 {
		status = telemetry.HealthStatusDegraded
	}
	return telemetry.HealthReport{
		Status:  status,
		Server:  domain.ServerName,
		Version: Version,
		Tools:   tools,
	}
}
