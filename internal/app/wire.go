//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/registry"
)

func InitializeApplication(ctx context.Context, cfg domain.Config, serve ServeConfig, logging LoggingConfig) (*Application, error) {
	wire.Build(AppSet)
	return nil, nil
}

func InitializeDispatcher(cfg domain.Config, logging LoggingConfig) (*registry.Registry, error) {
	wire.Build(OfflineSet)
	return nil, nil
}
