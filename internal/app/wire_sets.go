//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/rhuanca/databricks-mcp-server/internal/infra/gateway"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/registry"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
)

var CoreInfraSet = wire.NewSet(
	NewLogger,
	NewRemoteClient,
	wire.Bind(new(remote.Caller), new(*remote.Client)),
	NewRetryPolicy,
	NewDrainOptions,
)

var ServiceSet = wire.NewSet(
	NewStatementExecutor,
	NewCatalogService,
	NewWorkspaceService,
	NewJobsService,
	NewServices,
	NewToolBindings,
	NewRegistry,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	NewMetricsRegistry,
	NewMetrics,
	ServiceSet,
	wire.Bind(new(gateway.Dispatcher), new(*registry.Registry)),
	NewGateway,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)

var OfflineSet = wire.NewSet(
	CoreInfraSet,
	NewNoopMetrics,
	ServiceSet,
)
