package telemetry

import (
	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveToolCall(_ domain.ToolCallMetric) {}

func (n *NoopMetrics) ObserveRemoteRequest(_ domain.RemoteRequestMetric) {}

func (n *NoopMetrics) ObserveStatementPoll(_ domain.StatementState) {}

func (n *NoopMetrics) ObserveResultTruncated(_ domain.TruncationReason) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
