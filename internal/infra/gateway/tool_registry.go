package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"kculture/internal/domain"
)

// ToolCaller runs one named tool.
type ToolCaller interface {
	Call(ctx context.Context, name string, args json.RawMessage) (domain.ToolOutput, error)
}

type toolRegistry struct {
	server *mcp.Server
	caller ToolCaller
	logger *zap.Logger
	names  []string
}

func newToolRegistry(server *mcp.Server, caller ToolCaller, logger *zap.Logger) *toolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolRegistry{
		server: server,
		caller: caller,
		logger: logger.Named("tool_registry"),
	}
}

// Register adds every catalog tool with an object input schema.
func (r *toolRegistry) Register(tools []*mcp.Tool) {
	for _, tool := range tools {
		if tool == nil || tool.Name == "" {
			continue
		}
		if !isObjectSchema(tool.InputSchema) {
			r.logger.Warn("skip tool with invalid input schema", zap.String("tool", tool.Name))
			continue
		}
		r.server.AddTool(tool, r.handler(tool.Name))
		r.names = append(r.names, tool.Name)
	}
}

func (r *toolRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *toolRegistry) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		out, err := r.caller.Call(ctx, name, args)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: out.Text}},
			IsError: out.Failed(),
		}, nil
	}
}

func isObjectSchema(schema any) bool {
	if schema == nil {
		return false
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return false
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	if typ, ok := obj["type"].(string); ok {
		return strings.EqualFold(typ, "object")
	}
	return false
}
