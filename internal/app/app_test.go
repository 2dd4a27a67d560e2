package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

func TestApp_ListToolsWithoutCredentials(t *testing.T) {
	isolateEnv(t)
	application := New(zap.NewNop())

	tools, err := application.ListTools(context.Background(), ValidateConfig{})
	require.NoError(t, err)
	require.Len(t, tools, 14)
	for _, tool := range tools {
		require.True(t, strings.HasPrefix(tool.Name, tool.Service+"_"), tool.Name)
	}
}

func TestApp_ListToolsHonorsDisabledServices(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  jobs:\n    enabled: false\n  sql:\n    enabled: false\n"), 0o600))

	tools, err := New(nil).ListTools(context.Background(), ValidateConfig{ConfigPath: path})
	require.NoError(t, err)
	require.Len(t, tools, 7)
	for _, tool := range tools {
		require.NotEqual(t, domain.ServiceJobs, tool.Service)
		require.NotEqual(t, domain.ServiceSQL, tool.Service)
	}
}

func TestApp_ValidateConfig(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workspace:\n  host: example.cloud.databricks.com\n  token: dapi-test\n"), 0o600))

	require.NoError(t, New(zap.NewNop()).ValidateConfig(context.Background(), ValidateConfig{ConfigPath: path}))
}

func TestApp_ValidateConfigRequiresCredentials(t *testing.T) {
	isolateEnv(t)
	err := New(zap.NewNop()).ValidateConfig(context.Background(), ValidateConfig{})
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrMissingToken))
}

func TestInitializeApplication(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Workspace = domain.WorkspaceConfig{Host: "https://example.cloud.databricks.com", Token: "dapi-test"}

	application, err := InitializeApplication(context.Background(), cfg, ServeConfig{}, LoggingConfig{})
	require.NoError(t, err)
	require.Len(t, application.gateway.Tools(), 14)

	report := application.healthReport()
	require.Equal(t, "ok", report.Status)
	require.Equal(t, 14, report.Tools)
}

func TestApplication_UnsupportedTransport(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Workspace = domain.WorkspaceConfig{Host: "https://example.cloud.databricks.com", Token: "dapi-test"}
	cfg.Observability.Metrics = false
	cfg.Observability.Healthz = false

	application, err := InitializeApplication(context.Background(), cfg, ServeConfig{Transport: "carrier-pigeon"}, LoggingConfig{})
	require.NoError(t, err)
	require.ErrorContains(t, application.Run(), "unsupported transport")
}

func TestBuildLogger(t *testing.T) {
	logger, err := BuildLogger("debug", LogFormatConsole)
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = BuildLogger("warn", "")
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = BuildLogger("info", "xml")
	require.Error(t, err)

	_, err = BuildLogger("loud", LogFormatJSON)
	require.Error(t, err)
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(domain.DefaultHostEnv, "")
	t.Setenv(domain.DefaultTokenEnv, "")
	return dir
}
