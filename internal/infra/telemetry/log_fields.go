package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldTool        = "tool"
	FieldKind        = "kind"
	FieldService     = "service"
	FieldStatementID = "statement_id"
	FieldState       = "state"
	FieldDurationMs  = "duration_ms"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatus      = "status"
	FieldRequestID   = "request_id"
	FieldTraceID     = "trace_id"
	FieldSpanID      = "span_id"
)

func ToolField(name string) zap.Field {
	return zap.String(FieldTool, name)
}

func KindField(kind string) zap.Field {
	return zap.String(FieldKind, kind)
}

func ServiceField(service string) zap.Field {
	return zap.String(FieldService, service)
}

func StatementIDField(id string) zap.Field {
	return zap.String(FieldStatementID, id)
}

func StateField(state string) zap.Field {
	return zap.String(FieldState, state)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func MethodField(method string) zap.Field {
	return zap.String(FieldMethod, method)
}

func PathField(path string) zap.Field {
	return zap.String(FieldPath, path)
}

func StatusField(status int) zap.Field {
	return zap.Int(FieldStatus, status)
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
