package telemetry

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries a caller-chosen request ID inbound and the
// dispatch request ID outbound to the workspace.
const RequestIDHeader = "x-request-id"

const maxRequestIDLength = 128

type requestContextKey struct{}

// RequestMeta identifies one tool call across log lines and remote requests.
type RequestMeta struct {
	RequestID string
	TraceID   string
	SpanID    string
}

func (m RequestMeta) IsZero() bool {
	return m.RequestID == "" && m.TraceID == "" && m.SpanID == ""
}

// Fields renders the non-empty identifiers as log fields.
func (m RequestMeta) Fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if m.RequestID != "" {
		fields = append(fields, RequestIDField(m.RequestID))
	}
	if m.TraceID != "" {
		fields = append(fields, TraceIDField(m.TraceID))
	}
	if m.SpanID != "" {
		fields = append(fields, SpanIDField(m.SpanID))
	}
	return fields
}

func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestContextKey{}).(RequestMeta)
	return meta, ok && !meta.IsZero()
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	meta, ok := RequestMetaFromContext(ctx)
	if !ok || meta.RequestID == "" {
		return "", false
	}
	return meta.RequestID, true
}

// EnsureRequestMeta attaches request metadata to ctx. An explicit requestID
// replaces any existing one; otherwise an existing ID is kept or a new UUID
// is generated. Trace and span IDs come from the active span, if any.
func EnsureRequestMeta(ctx context.Context, requestID string) (context.Context, RequestMeta) {
	if ctx == nil {
		ctx = context.Background()
	}
	if requestID == "" {
		if existing, ok := RequestMetaFromContext(ctx); ok {
			requestID = existing.RequestID
		}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	meta := RequestMeta{RequestID: requestID}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		meta.TraceID = spanCtx.TraceID().String()
		meta.SpanID = spanCtx.SpanID().String()
	}
	return context.WithValue(ctx, requestContextKey{}, meta), meta
}

// RequestIDFromHeader returns the caller's request ID when it is short and
// printable, and "" otherwise.
func RequestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	id := strings.TrimSpace(header.Get(RequestIDHeader))
	if id == "" || len(id) > maxRequestIDLength {
		return ""
	}
	for _, r := range id {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return ""
		}
	}
	return id
}

// LoggerWithRequest decorates base with the request fields found in ctx.
func LoggerWithRequest(ctx context.Context, base *zap.Logger) *zap.Logger {
	logger := base
	if logger == nil {
		logger = zap.NewNop()
	}
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return logger
	}
	return logger.With(meta.Fields()...)
}
