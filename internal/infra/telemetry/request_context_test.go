package telemetry

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEnsureRequestMetaGeneratesID(t *testing.T) {
	ctx, meta := EnsureRequestMeta(context.Background(), "")
	require.NotEmpty(t, meta.RequestID)

	got, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, meta.RequestID, got)
}

func TestEnsureRequestMetaKeepsExistingID(t *testing.T) {
	ctx, first := EnsureRequestMeta(context.Background(), "")
	_, second := EnsureRequestMeta(ctx, "")
	require.Equal(t, first.RequestID, second.RequestID)
}

func TestEnsureRequestMetaExplicitIDWins(t *testing.T) {
	ctx, _ := EnsureRequestMeta(context.Background(), "")
	ctx, meta := EnsureRequestMeta(ctx, "req-123")
	require.Equal(t, "req-123", meta.RequestID)

	got, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "req-123", got)
}

func TestEnsureRequestMetaCarriesTrace(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0123456789abcdef")
	require.NoError(t, err)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	_, meta := EnsureRequestMeta(ctx, "req-1")
	require.Equal(t, traceID.String(), meta.TraceID)
	require.Equal(t, spanID.String(), meta.SpanID)
}

func TestRequestMetaFields(t *testing.T) {
	fields := RequestMeta{
		RequestID: "req-1",
		TraceID:   "trace-1",
		SpanID:    "span-1",
	}.Fields()
	require.Len(t, fields, 3)
	require.Equal(t, FieldRequestID, fields[0].Key)
	require.Equal(t, FieldTraceID, fields[1].Key)
	require.Equal(t, FieldSpanID, fields[2].Key)

	require.Len(t, RequestMeta{RequestID: "only"}.Fields(), 1)
}

func TestRequestIDFromHeader(t *testing.T) {
	header := http.Header{}
	require.Empty(t, RequestIDFromHeader(nil))
	require.Empty(t, RequestIDFromHeader(header))

	header.Set(RequestIDHeader, "  abc-123  ")
	require.Equal(t, "abc-123", RequestIDFromHeader(header))

	header.Set(RequestIDHeader, "has space")
	require.Empty(t, RequestIDFromHeader(header))

	header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	require.Empty(t, RequestIDFromHeader(header))

	header.Set(RequestIDHeader, "tab\tinside")
	require.Empty(t, RequestIDFromHeader(header))
}

func TestLoggerWithRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx, meta := EnsureRequestMeta(context.Background(), "req-9")

	LoggerWithRequest(ctx, zap.New(core)).Info("hello")
	LoggerWithRequest(context.Background(), zap.New(core)).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, meta.RequestID, entries[0].ContextMap()[FieldRequestID])
	require.NotContains(t, entries[1].ContextMap(), FieldRequestID)

	require.NotNil(t, LoggerWithRequest(ctx, nil))
}
