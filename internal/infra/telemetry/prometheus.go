package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

const kindSuccess = "success"

type PrometheusMetrics struct {
	toolCalls             *prometheus.CounterVec
	toolCallDuration      *prometheus.HistogramVec
	remoteRequests        *prometheus.CounterVec
	remoteRequestDuration *prometheus.HistogramVec
	statementPolls        *prometheus.CounterVec
	resultTruncations     *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databricks_mcp_tool_calls_total",
				Help: "Total number of dispatched tool calls by outcome kind",
			},
			[]string{"tool", "kind"},
		),
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "databricks_mcp_tool_call_duration_seconds",
				Help:    "Duration of dispatched tool calls in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"tool", "kind"},
		),
		remoteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databricks_mcp_remote_requests_total",
				Help: "Total number of workspace API requests by HTTP status",
			},
			[]string{"method", "status"},
		),
		remoteRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "databricks_mcp_remote_request_duration_seconds",
				Help:    "Duration of workspace API requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		statementPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databricks_mcp_statement_polls_total",
				Help: "Total number of statement status checks by observed state",
			},
			[]string{"state"},
		),
		resultTruncations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "databricks_mcp_result_truncations_total",
				Help: "Total number of statement results cut short by a ceiling",
			},
			[]string{"reason"},
		),
	}
}

func (p *PrometheusMetrics) ObserveToolCall(metric domain.ToolCallMetric) {
	kind := string(metric.Kind)
	if kind == "" {
		kind = kindSuccess
	}
	p.toolCalls.WithLabelValues(metric.Tool, kind).Inc()
	p.toolCallDuration.WithLabelValues(metric.Tool, kind).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) ObserveRemoteRequest(metric domain.RemoteRequestMetric) {
	status := "unreachable"
	if metric.Status > 0 {
		status = strconv.Itoa(metric.Status)
	}
	p.remoteRequests.WithLabelValues(metric.Method, status).Inc()
	p.remoteRequestDuration.WithLabelValues(metric.Method).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) ObserveStatementPoll(state domain.StatementState) {
	p.statementPolls.WithLabelValues(string(state)).Inc()
}

func (p *PrometheusMetrics) ObserveResultTruncated(reason domain.TruncationReason) {
	p.resultTruncations.WithLabelValues(string(reason)).Inc()
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
