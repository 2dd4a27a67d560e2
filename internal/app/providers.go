package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/gateway"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/jobs"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/registry"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/statement"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/toolset"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/unitycatalog"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/workspace"
)

func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	reg.MustRegister(prometheus.NewGoCollector())
	return reg
}

func NewMetrics(reg *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(reg)
}

func NewNoopMetrics() domain.Metrics {
	return telemetry.NewNoopMetrics()
}

func NewRemoteClient(cfg domain.Config, logger *zap.Logger, metrics domain.Metrics) (*remote.Client, error) {
	return remote.NewClient(remote.Options{
		BaseURL:   cfg.Workspace.Host,
		Token:     cfg.Workspace.Token,
		Timeout:   cfg.Remote.Timeout,
		UserAgent: cfg.Remote.UserAgent,
		Logger:    logger,
		Metrics:   metrics,
	})
}

func NewRetryPolicy(cfg domain.Config) remote.RetryPolicy {
	return remote.RetryPolicy{
		MaxRetries: cfg.Remote.MaxRetries,
		Base:       cfg.Remote.RetryBase,
		Max:        cfg.Remote.RetryMax,
	}
}

func NewDrainOptions(cfg domain.Config) remote.DrainOptions {
	return remote.DrainOptions{
		Timeout:  cfg.Listing.Timeout,
		MaxPages: cfg.Listing.MaxPages,
	}
}

func NewStatementExecutor(
	caller remote.Caller,
	cfg domain.Config,
	retry remote.RetryPolicy,
	listing remote.DrainOptions,
	logger *zap.Logger,
	metrics domain.Metrics,
) *statement.Executor {
	return statement.NewExecutor(caller, statement.Options{
		Config:  cfg.Statement,
		Retry:   retry,
		Listing: listing,
		Logger:  logger,
		Metrics: metrics,
	})
}

func NewCatalogService(caller remote.Caller, cfg domain.Config, retry remote.RetryPolicy, listing remote.DrainOptions, logger *zap.Logger) *unitycatalog.Service {
	return unitycatalog.NewService(caller, unitycatalog.Options{
		PageSize: cfg.Listing.PageSize,
		Listing:  listing,
		Retry:    retry,
		Logger:   logger,
	})
}

func NewWorkspaceService(caller remote.Caller, retry remote.RetryPolicy, logger *zap.Logger) *workspace.Service {
	return workspace.NewService(caller, workspace.Options{Retry: retry, Logger: logger})
}

func NewJobsService(caller remote.Caller, retry remote.RetryPolicy, logger *zap.Logger) *jobs.Service {
	return jobs.NewService(caller, jobs.Options{Retry: retry, Logger: logger})
}

func NewServices(
	statements *statement.Executor,
	catalog *unitycatalog.Service,
	ws *workspace.Service,
	jobsService *jobs.Service,
) toolset.Services {
	return toolset.Services{
		Statements: statements,
		Catalog:    catalog,
		Workspace:  ws,
		Jobs:       jobsService,
	}
}

func NewToolBindings(services toolset.Services, cfg domain.Config) []domain.ToolBinding {
	return toolset.Bindings(services, cfg.Services)
}

func NewRegistry(bindings []domain.ToolBinding, cfg domain.Config, logger *zap.Logger, metrics domain.Metrics) (*registry.Registry, error) {
	return registry.New(bindings, registry.Options{
		CallTimeout: cfg.Dispatch.CallTimeout,
		Logger:      logger,
		Metrics:     metrics,
	})
}

func NewGateway(dispatcher gateway.Dispatcher, logger *zap.Logger) (*gateway.Gateway, error) {
	return gateway.New(dispatcher, gateway.Options{
		Version: Version,
		Logger:  logger,
	})
}
