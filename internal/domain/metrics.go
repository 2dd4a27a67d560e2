package domain

import "time"

// ToolCallMetric captures one dispatched tool call.
type ToolCallMetric struct {
	Tool     string
	Kind     Kind
	Duration time.Duration
}

// RemoteRequestMetric captures one HTTP request to the workspace.
type RemoteRequestMetric struct {
	Method string
	// Status is the HTTP status code, or 0 when the workspace was unreachable.
	Status   int
	Duration time.Duration
}

// TruncationReason names the ceiling that cut a result short.
type TruncationReason string

const (
	TruncatedByRows   TruncationReason = "rows"
	TruncatedByBytes  TruncationReason = "bytes"
	TruncatedByRemote TruncationReason = "remote"
)

// Metrics records gateway observations.
type Metrics interface {
	ObserveToolCall(metric ToolCallMetric)
	ObserveRemoteRequest(metric RemoteRequestMetric)
	ObserveStatementPoll(state StatementState)
	ObserveResultTruncated(reason TruncationReason)
}
