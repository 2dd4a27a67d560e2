package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

// Options configures a Registry.
type Options struct {
	CallTimeout time.Duration
	Logger      *zap.Logger
	Metrics     domain.Metrics
}

type entry struct {
	binding  domain.ToolBinding
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	defaults map[string]any
}

// Registry is the immutable dispatch table of tools. Arguments are checked
// against each tool's schema before its handler runs.
type Registry struct {
	entries     []*entry
	index       map[string]*entry
	callTimeout time.Duration
	logger      *zap.Logger
	metrics     domain.Metrics
}

// New builds a registry from bindings in registration order.
func New(bindings []domain.ToolBinding, opts Options) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}

	r := &Registry{
		entries:     make([]*entry, 0, len(bindings)),
		index:       make(map[string]*entry, len(bindings)),
		callTimeout: opts.CallTimeout,
		logger:      logger.Named("registry"),
		metrics:     metrics,
	}
	var errs []error
	for _, binding := range bindings {
		name := binding.Descriptor.Name
		switch {
		case name == "":
			errs = append(errs, errors.New("tool name is empty"))
			continue
		case binding.Handler == nil:
			errs = append(errs, fmt.Errorf("tool %s: handler is nil", name))
			continue
		}
		if _, dup := r.index[name]; dup {
			errs = append(errs, fmt.Errorf("tool %s: registered twice", name))
			continue
		}
		schema, err := compileSchema(binding.Descriptor)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		resolved, err := schema.Resolve(nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("tool %s: resolve schema: %w", name, err))
			continue
		}
		e := &entry{
			binding:  cloneBinding(binding),
			schema:   schema,
			resolved: resolved,
			defaults: make(map[string]any),
		}
		for _, param := range binding.Descriptor.Params {
			if param.Default != nil {
				e.defaults[param.Name] = normalizeDefault(param.Default)
			}
		}
		r.entries = append(r.entries, e)
		r.index[name] = e
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("build tool registry: %w", errors.Join(errs...))
	}
	return r, nil
}

// ListTools returns the tool descriptors in registration order.
func (r *Registry) ListTools() []domain.ToolDescriptor {
	out := make([]domain.ToolDescriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, cloneBinding(e.binding).Descriptor)
	}
	return out
}

// Schema returns the compiled input schema of a tool.
func (r *Registry) Schema(name string) (*jsonschema.Schema, bool) {
	e, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return cloneSchema(e.schema), true
}

// Dispatch validates the arguments, runs the tool and wraps the outcome.
// It never returns a bare error and never panics.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs json.RawMessage) domain.Envelope {
	start := time.Now()
	envelope := r.dispatch(ctx, name, rawArgs)
	duration := time.Since(start)

	kind := envelope.ErrorKind()
	r.metrics.ObserveToolCall(domain.ToolCallMetric{Tool: name, Kind: kind, Duration: duration})

	logger := telemetry.LoggerWithRequest(ctx, r.logger)
	fields := []zap.Field{telemetry.ToolField(name), telemetry.DurationField(duration)}
	if e, ok := r.index[name]; ok {
		fields = append(fields, telemetry.ServiceField(e.binding.Descriptor.Service))
	}
	if envelope.Success {
		logger.Info("tool call succeeded", fields...)
	} else {
		fields = append(fields, telemetry.KindField(string(kind)), zap.String("message", envelope.Error.Message))
		if kind == domain.KindInternal {
			logger.Error("tool call failed", fields...)
		} else {
			logger.Warn("tool call failed", fields...)
		}
	}
	return envelope
}

func (r *Registry) dispatch(ctx context.Context, name string, rawArgs json.RawMessage) domain.Envelope {
	const op = "registry.Dispatch"
	e, ok := r.index[name]
	if !ok {
		return domain.FailureEnvelope(domain.E(domain.KindValidation, op, fmt.Sprintf("unknown tool %q", name), domain.ErrUnknownTool))
	}

	args, err := decodeArgs(rawArgs)
	if err != nil {
		return domain.FailureEnvelope(domain.E(domain.KindValidation, op, err.Error(), domain.ErrInvalidArgument))
	}
	if err := e.resolved.Validate(map[string]any(args)); err != nil {
		return domain.FailureEnvelope(domain.E(domain.KindValidation, op, fmt.Sprintf("invalid arguments for %s: %v", name, err), domain.ErrInvalidArgument))
	}
	for key, value := range e.defaults {
		if _, present := args[key]; !present {
			args[key] = value
		}
	}

	callCtx := ctx
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}

	payload, err := r.invoke(callCtx, e.binding.Handler, args)
	if err != nil {
		var domainErr *domain.Error
		if !errors.As(err, &domainErr) && callCtx.Err() != nil {
			err = domain.E(domain.KindTimeout, op, fmt.Sprintf("tool %s did not finish in time", name), err)
		}
		return domain.FailureEnvelope(err)
	}
	return domain.SuccessEnvelope(payload)
}

type invocation struct {
	payload any
	err     error
}

// invoke runs the handler and returns when it finishes or ctx ends.
func (r *Registry) invoke(ctx context.Context, handler domain.ToolHandler, args domain.ToolArgs) (any, error) {
	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				r.logger.Error("tool handler panicked",
					zap.Any("panic", recovered),
					zap.ByteString("stack", debug.Stack()),
				)
				done <- invocation{err: domain.E(domain.KindInternal, "registry.Dispatch", "tool handler failed unexpectedly", fmt.Errorf("panic: %v", recovered))}
			}
		}()
		payload, err := handler(ctx, args)
		done <- invocation{payload: payload, err: err}
	}()

	select {
	case result := <-done:
		return result.payload, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func decodeArgs(raw json.RawMessage) (domain.ToolArgs, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.ToolArgs{}, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %v", err)
	}
	switch v := decoded.(type) {
	case nil:
		return domain.ToolArgs{}, nil
	case map[string]any:
		return domain.ToolArgs(v), nil
	default:
		return nil, errors.New("arguments must be a JSON object")
	}
}

// normalizeDefault converts a Go default into its decoded JSON form so that
// handlers see the same types for explicit and defaulted arguments.
func normalizeDefault(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return value
	}
	return decoded
}

func cloneSchema(schema *jsonschema.Schema) *jsonschema.Schema {
	raw, err := json.Marshal(schema)
	if err != nil {
		return schema
	}
	var clone jsonschema.Schema
	if err := json.Unmarshal(raw, &clone); err != nil {
		return schema
	}
	return &clone
}

func cloneBinding(b domain.ToolBinding) domain.ToolBinding {
	params := make([]domain.ToolParam, len(b.Descriptor.Params))
	for i, p := range b.Descriptor.Params {
		p.Enum = append([]string(nil), p.Enum...)
		params[i] = p
	}
	b.Descriptor.Params = params
	return b
}
