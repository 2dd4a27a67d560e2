package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObservabilityHandler_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewPrometheusMetrics(registry).ObserveStatementPoll("RUNNING")

	server := httptest.NewServer(ObservabilityHandler(HTTPServerOptions{EnableMetrics: true, Registry: registry}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "databricks_mcp_statement_polls_total")

	health, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusNotFound, health.StatusCode)
}

func TestObservabilityHandler_Healthz(t *testing.T) {
	var status atomic.Value
	status.Store(HealthStatusOK)
	server := httptest.NewServer(ObservabilityHandler(HTTPServerOptions{
		EnableHealthz: true,
		Health: func() HealthReport {
			return HealthReport{Status: status.Load().(string), Server: "test", Tools: 3}
		},
	}))
	defer server.Close()

	report, code := getHealth(t, server.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, HealthReport{Status: HealthStatusOK, Server: "test", Tools: 3}, report)

	status.Store(HealthStatusDegraded)
	report, code = getHealth(t, server.URL+"/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, HealthStatusDegraded, report.Status)

	post, err := http.Post(server.URL+"/healthz", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestObservabilityHandler_DefaultHealthIsOK(t *testing.T) {
	server := httptest.NewServer(ObservabilityHandler(HTTPServerOptions{EnableHealthz: true}))
	defer server.Close()

	report, code := getHealth(t, server.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, HealthStatusOK, report.Status)
}

func TestStartHTTPServer_ServesUntilCanceled(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- StartHTTPServer(ctx, HTTPServerOptions{Addr: addr, EnableHealthz: true}, zap.NewNop())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 25*time.Millisecond)

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestStartHTTPServer_PortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	defer listener.Close()

	err = StartHTTPServer(context.Background(), HTTPServerOptions{Addr: listener.Addr().String(), EnableMetrics: true}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observability server failed to start")
}

func TestStartHTTPServer_DisabledIsNoop(t *testing.T) {
	require.NoError(t, StartHTTPServer(context.Background(), HTTPServerOptions{}, nil))
}

func getHealth(t *testing.T, url string) (HealthReport, int) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var report HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	return report, resp.StatusCode
}

func freeAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()
	return addr
}
