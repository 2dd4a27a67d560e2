package registry

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

func echoBinding(name string, calls *atomic.Int32) domain.ToolBinding {
	return domain.ToolBinding{
		Descriptor: domain.ToolDescriptor{
			Name:        name,
			Service:     domain.ServiceUC,
			Description: "echoes its arguments",
			Params: []domain.ToolParam{
				{Name: "catalog_name", Type: domain.ParamString, Required: true},
				{Name: "limit", Type: domain.ParamInteger, Default: 20, Minimum: domain.Bound(1), Maximum: domain.Bound(100)},
				{Name: "format", Type: domain.ParamString, Enum: []string{"SOURCE", "HTML"}},
			},
		},
		Handler: func(ctx context.Context, args domain.ToolArgs) (any, error) {
			if calls != nil {
				calls.Add(1)
			}
			limit, err := args.Int("limit")
			if err != nil {
				return nil, err
			}
			return map[string]any{"catalog": args.String("catalog_name"), "limit": limit}, nil
		},
	}
}

func newTestRegistry(t *testing.T, opts Options, bindings ...domain.ToolBinding) *Registry {
	t.Helper()
	r, err := New(bindings, opts)
	require.NoError(t, err)
	return r
}

func TestNew_RejectsDuplicateAndEmptyNames(t *testing.T) {
	_, err := New([]domain.ToolBinding{echoBinding("a", nil), echoBinding("a", nil)}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")

	_, err = New([]domain.ToolBinding{echoBinding("", nil)}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool name is empty")
}

func TestNew_RejectsBadParams(t *testing.T) {
	binding := echoBinding("a", nil)
	binding.Descriptor.Params = append(binding.Descriptor.Params, domain.ToolParam{Name: "x", Type: "date"})
	_, err := New([]domain.ToolBinding{binding}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestListTools_PreservesOrder(t *testing.T) {
	r := newTestRegistry(t, Options{}, echoBinding("b", nil), echoBinding("a", nil), echoBinding("c", nil))

	tools := r.ListTools()
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)

	tools[0].Params[0].Name = "mutated"
	assert.Equal(t, "catalog_name", r.ListTools()[0].Params[0].Name)
}

func TestSchema_IsClosedObject(t *testing.T) {
	r := newTestRegistry(t, Options{}, echoBinding("a", nil))

	schema, ok := r.Schema("a")
	require.True(t, ok)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"catalog_name"}, schema.Required)
	assert.Contains(t, schema.Properties, "limit")

	_, ok = r.Schema("missing")
	assert.False(t, ok)
}

func TestDispatch_Success(t *testing.T) {
	r := newTestRegistry(t, Options{}, echoBinding("a", nil))

	env := r.Dispatch(context.Background(), "a", json.RawMessage(`{"catalog_name":"main"}`))
	require.True(t, env.Success, "%+v", env.Error)
	assert.Nil(t, env.Error)
	assert.Equal(t, map[string]any{"catalog": "main", "limit": int64(20)}, env.Payload)
}

func TestDispatch_ValidationFailuresNeverRunHandler(t *testing.T) {
	var calls atomic.Int32
	r := newTestRegistry(t, Options{}, echoBinding("a", &calls))

	cases := map[string]string{
		"missing required":   `{}`,
		"wrong type":         `{"catalog_name":5}`,
		"unknown argument":   `{"catalog_name":"main","extra":true}`,
		"below minimum":      `{"catalog_name":"main","limit":0}`,
		"not in enum":        `{"catalog_name":"main","format":"PDF"}`,
		"not an object":      `["main"]`,
		"invalid json":       `{"catalog_name":`,
		"fractional integer": `{"catalog_name":"main","limit":2.5}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			env := r.Dispatch(context.Background(), "a", json.RawMessage(raw))
			require.False(t, env.Success)
			assert.Equal(t, domain.KindValidation, env.ErrorKind())
			assert.NotEmpty(t, env.Error.Message)
		})
	}
	assert.Zero(t, calls.Load())
}

func TestDispatch_UnknownToolIsValidationError(t *testing.T) {
	r := newTestRegistry(t, Options{}, echoBinding("a", nil))

	env := r.Dispatch(context.Background(), "nope", nil)
	assert.False(t, env.Success)
	assert.Equal(t, domain.KindValidation, env.ErrorKind())
	assert.Contains(t, env.Error.Message, "nope")
}

func TestDispatch_NullArgumentsAreEmptyObject(t *testing.T) {
	binding := domain.ToolBinding{
		Descriptor: domain.ToolDescriptor{Name: "noargs"},
		Handler: func(ctx context.Context, args domain.ToolArgs) (any, error) {
			return len(args), nil
		},
	}
	r := newTestRegistry(t, Options{}, binding)

	for _, raw := range []string{"", "null", "{}"} {
		env := r.Dispatch(context.Background(), "noargs", json.RawMessage(raw))
		require.True(t, env.Success, "args %q", raw)
		assert.Equal(t, 0, env.Payload)
	}
}

func TestDispatch_ErrorClassification(t *testing.T) {
	handlerErr := func(err error) domain.ToolBinding {
		return domain.ToolBinding{
			Descriptor: domain.ToolDescriptor{Name: "t"},
			Handler: func(ctx context.Context, args domain.ToolArgs) (any, error) {
				return nil, err
			},
		}
	}

	cases := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"classified keeps kind", domain.E(domain.KindNotFound, "uc", "catalog \"x\" not found", nil), domain.KindNotFound},
		{"unclassified is internal", errors.New("boom"), domain.KindInternal},
		{"statement error", domain.E(domain.KindStatement, "sql", "syntax error", nil), domain.KindStatement},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRegistry(t, Options{}, handlerErr(tc.err))
			env := r.Dispatch(context.Background(), "t", nil)
			assert.False(t, env.Success)
			assert.Equal(t, tc.want, env.ErrorKind())
			assert.Nil(t, env.Payload)
		})
	}
}

func TestDispatch_PanicIsInternalError(t *testing.T) {
	binding := domain.ToolBinding{
		Descriptor: domain.ToolDescriptor{Name: "panics"},
		Handler: func(ctx context.Context, args domain.ToolArgs) (any, error) {
			panic("unexpected")
		},
	}
	r := newTestRegistry(t, Options{}, binding)

	env := r.Dispatch(context.Background(), "panics", nil)
	assert.False(t, env.Success)
	assert.Equal(t, domain.KindInternal, env.ErrorKind())
}

func TestDispatch_CallTimeout(t *testing.T) {
	binding := domain.ToolBinding{
		Descriptor: domain.ToolDescriptor{Name: "slow"},
		Handler: func(ctx context.Context, args domain.ToolArgs) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	r := newTestRegistry(t, Options{CallTimeout: 20 * time.Millisecond}, binding)

	start := time.Now()
	env := r.Dispatch(context.Background(), "slow", nil)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.KindTimeout, env.ErrorKind())
}

func TestDispatch_ObservesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(registry)
	r := newTestRegistry(t, Options{Metrics: metrics}, echoBinding("a", nil))

	r.Dispatch(context.Background(), "a", json.RawMessage(`{"catalog_name":"main"}`))
	r.Dispatch(context.Background(), "a", json.RawMessage(`{}`))

	count, err := testutil.GatherAndCount(registry, "databricks_mcp_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDispatch_LogsToolAndService(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newTestRegistry(t, Options{Logger: zap.New(core)}, echoBinding("uc_echo", nil))

	env := r.Dispatch(context.Background(), "uc_echo", json.RawMessage(`{"catalog_name":"main"}`))
	require.True(t, env.Success)

	entries := logs.FilterMessage("tool call succeeded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "uc_echo", fields[telemetry.FieldTool])
	require.Equal(t, domain.ServiceUC, fields[telemetry.FieldService])
}
