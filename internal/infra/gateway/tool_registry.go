package gateway

import (
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// registerTools adds one MCP tool per dispatcher descriptor and returns the
// names that were registered.
func registerTools(server *mcp.Server, dispatcher Dispatcher, handler func(name string) mcp.ToolHandler, logger *zap.Logger) []string {
	descriptors := dispatcher.ListTools()
	registered := make([]string, 0, len(descriptors))
	for _, desc := range descriptors {
		schema, ok := dispatcher.Schema(desc.Name)
		if !ok || !isObjectSchema(schema) {
			logger.Warn("skip tool with invalid input schema", zap.String("tool", desc.Name))
			continue
		}
		server.AddTool(&mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: schema,
		}, handler(desc.Name))
		registered = append(registered, desc.Name)
	}
	return registered
}

// isObjectSchema reports whether schema describes a JSON object, which MCP
// requires of tool input schemas.
func isObjectSchema(schema *jsonschema.Schema) bool {
	if schema == nil {
		return false
	}
	if strings.EqualFold(schema.Type, "object") {
		return true
	}
	return slices.ContainsFunc(schema.Types, func(t string) bool {
		return strings.EqualFold(t, "object")
	})
}
