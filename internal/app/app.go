package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/config"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/gateway"
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

type App struct {
	logger *zap.Logger
}

type ServeConfig struct {
	ConfigPath string
	Transport  string
	HTTP       gateway.HTTPOptions
	// MetricsAddr overrides observability.listenAddress when set.
	MetricsAddr string
}

type ValidateConfig struct {
	ConfigPath string
}

func New(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		logger: logger.Named("app"),
	}
}

// Serve loads the configuration, builds the tool table and serves it until
// ctx ends.
func (a *App) Serve(ctx context.Context, cfg ServeConfig) error {
	loader := config.NewLoader(a.logger, config.Options{})
	loaded, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		loaded.Observability.ListenAddress = cfg.MetricsAddr
	}

	application, err := InitializeApplication(ctx, loaded, cfg, LoggingConfig{Logger: a.logger})
	if err != nil {
		return err
	}
	err = application.Run()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ValidateConfig loads and validates the configuration without serving.
func (a *App) ValidateConfig(ctx context.Context, cfg ValidateConfig) error {
	loader := config.NewLoader(a.logger, config.Options{})
	loaded, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return err
	}

	a.logger.Info("configuration validated",
		zap.String("config", cfg.ConfigPath),
		zap.String("host", loaded.Workspace.Host),
		zap.String("token_source", loaded.Workspace.TokenSource),
		zap.Strings("services", enabledServices(loaded.Services)),
	)
	return nil
}

// ListTools returns the descriptors the server would expose. It never
// contacts the workspace, so credentials are optional.
func (a *App) ListTools(ctx context.Context, cfg ValidateConfig) ([]domain.ToolDescriptor, error) {
	loader := config.NewLoader(a.logger, config.Options{SkipCredentials: true})
	loaded, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if loaded.Workspace.Host == "" {
		loaded.Workspace.Host = offlineHost
	}
	if loaded.Workspace.Token == "" {
		loaded.Workspace.Token = offlineToken
	}

	dispatcher, err := InitializeDispatcher(loaded, LoggingConfig{Logger: a.logger})
	if err != nil {
		return nil, err
	}
	return dispatcher.ListTools(), nil
}

// Placeholders for building the tool table when only descriptors are needed.
const (
	offlineHost  = "https://workspace.invalid"
	offlineToken = "offline"
)

func enabledServices(services domain.ServicesConfig) []string {
	names := make([]string, 0, len(domain.Services))
	for _, service := range domain.Services {
		if services.Enabled(service) {
			names = append(names, service)
		}
	}
	return names
}
