package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

// Dispatcher is the tool table the gateway exposes.
type Dispatcher interface {
	ListTools() []domain.ToolDescriptor
	Schema(name string) (*jsonschema.Schema, bool)
	Dispatch(ctx context.Context, name string, rawArgs json.RawMessage) domain.Envelope
}

// Options configures a Gateway.
type Options struct {
	Name    string
	Version string
	Logger  *zap.Logger
}

// Gateway serves the dispatcher's tools over MCP. Every call result carries
// the dispatch envelope; tool failures never become protocol errors.
type Gateway struct {
	dispatcher Dispatcher
	server     *mcp.Server
	tools      []string
	logger     *zap.Logger
}

func New(dispatcher Dispatcher, opts Options) (*Gateway, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = domain.ServerName
	}
	version := opts.Version
	if version == "" {
		version = domain.ServerVersion
	}

	g := &Gateway{
		dispatcher: dispatcher,
		logger:     logger.Named("gateway"),
	}
	g.server = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})
	g.server.AddReceivingMiddleware(g.requestMetaMiddleware())
	g.tools = registerTools(g.server, dispatcher, g.toolHandler, g.logger)
	return g, nil
}

// Server returns the underlying MCP server.
func (g *Gateway) Server() *mcp.Server {
	return g.server
}

// Tools returns the names of the registered tools.
func (g *Gateway) Tools() []string {
	return append([]string(nil), g.tools...)
}

// Run serves a single session over stdio until ctx ends or the peer closes.
func (g *Gateway) Run(ctx context.Context) error {
	g.logger.Info("gateway starting (stdio transport)", zap.Int("tools", len(g.tools)))
	return g.server.Run(ctx, &mcp.StdioTransport{})
}

func (g *Gateway) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		if req != nil && req.Extra != nil {
			if id := telemetry.RequestIDFromHeader(req.Extra.Header); id != "" {
				ctx, _ = telemetry.EnsureRequestMeta(ctx, id)
			}
		}
		return renderEnvelope(g.dispatcher.Dispatch(ctx, name, args)), nil
	}
}

// requestMetaMiddleware attaches request and trace IDs to tool calls.
func (g *Gateway) requestMetaMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method == "tools/call" {
				ctx, _ = telemetry.EnsureRequestMeta(ctx, "")
			}
			return next(ctx, method, req)
		}
	}
}

// renderEnvelope converts an envelope into a tool result whose text and
// structured content are the envelope itself.
func renderEnvelope(env domain.Envelope) *mcp.CallToolResult {
	raw, err := json.Marshal(env)
	if err != nil {
		env = domain.FailureEnvelope(domain.E(domain.KindInternal, "gateway.render", "tool result could not be encoded", err))
		raw, _ = json.Marshal(env)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(raw)}},
		StructuredContent: json.RawMessage(raw),
		IsError:           !env.Success,
	}
}
