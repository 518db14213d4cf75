package gateway

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/telemetry"
)

// ToolService is the catalog and dispatcher exposed over stdio.
type ToolService interface {
	ToolCaller
	Tools() []*mcp.Tool
}

type StdioOptions struct {
	Version string
	Logger  *zap.Logger
}

// StdioGateway serves the catalog through the MCP SDK over stdin/stdout.
type StdioGateway struct {
	server   *mcp.Server
	registry *toolRegistry
	logger   *zap.Logger
}

func NewStdioGateway(tools ToolService, opts StdioOptions) *StdioGateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gateway").With(
		zap.String(telemetry.FieldLogSource, telemetry.LogSourceGateway),
		telemetry.TransportField("stdio"),
	)
	server := mcp.NewServer(&mcp.Implementation{
		Name:    domain.ServerName,
		Version: opts.Version,
	}, &mcp.ServerOptions{HasTools: true})

	registry := newToolRegistry(server, tools, logger)
	registry.Register(tools.Tools())
	return &StdioGateway{server: server, registry: registry, logger: logger}
}

// Server exposes the underlying MCP server, e.g. for in-memory transports.
func (g *StdioGateway) Server() *mcp.Server {
	return g.server
}

func (g *StdioGateway) Run(ctx context.Context) error {
	g.logger.Info("gateway starting (stdio transport)", zap.Strings("tools", g.registry.Names()))
	return g.server.Run(ctx, &mcp.StdioTransport{})
}
