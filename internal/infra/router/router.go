// Package router maps JSON-RPC envelopes onto tool calls and packages the
// results. Each request is handled on its own; no session state is kept.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/telemetry"
)

const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
	MethodPing        = "ping"
)

// ToolService is the tool catalog and dispatcher behind tools/list and tools/call.
type ToolService interface {
	Tools() []*mcp.Tool
	Call(ctx context.Context, name string, args json.RawMessage) (domain.ToolOutput, error)
}

// Reply is an encoded JSON-RPC response plus the HTTP status it maps to.
type Reply struct {
	Status int
	Body   []byte
	Method string
	RPC    domain.RPCStatus
}

// Handler turns one request body into one reply.
type Handler interface {
	Handle(ctx context.Context, body []byte) Reply
}

type Options struct {
	Version string
	Logger  *zap.Logger
}

type Router struct {
	tools   ToolService
	version string
	logger  *zap.Logger
}

func New(tools ToolService, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		tools:   tools,
		version: opts.Version,
		logger:  logger.Named("router").With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCore)),
	}
}

func (r *Router) Handle(ctx context.Context, body []byte) (reply Reply) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.LoggerWithRequest(ctx, r.logger).Error("route panic",
				telemetry.EventField(telemetry.EventRoutePanic),
				telemetry.MethodField(reply.Method),
				telemetry.DurationField(time.Since(start)),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			reply = r.fail(nullID, reply.Method, domain.RPCInternalError, fmt.Sprint(rec))
		}
	}()

	req, ok := decodeRequest(body)
	if !ok {
		return r.fail(nullID, "", domain.RPCParseError, "Parse error")
	}
	if req.JSONRPC != domain.JSONRPCVersion {
		return r.fail(req.ID, req.Method, domain.RPCInvalidRequest, "Invalid JSON-RPC version")
	}
	if req.Method == "" {
		return r.fail(req.ID, "", domain.RPCInvalidRequest, "Missing method")
	}
	reply.Method = req.Method

	var (
		result any
		err    error
	)
	switch req.Method {
	case MethodInitialize:
		result = r.initialize(req.Params)
	case MethodInitialized, MethodPing:
		result = struct{}{}
	case MethodToolsList:
		result = &mcp.ListToolsResult{Tools: r.tools.Tools()}
	case MethodToolsCall:
		result, err = r.callTool(ctx, req.Params)
	default:
		err = domain.E(domain.CodeInvalidRequest, "router", "Unknown method: "+req.Method, domain.ErrUnknownMethod)
	}
	if err != nil {
		var protoErr *domain.ProtocolError
		switch {
		case errors.As(err, &protoErr):
			return r.fail(req.ID, req.Method, protoErr.Code, protoErr.Message)
		case errors.Is(err, domain.ErrUnknownMethod):
			return r.fail(req.ID, req.Method, domain.RPCMethodNotFound, domain.MessageFrom(err))
		}
		r.logError(ctx, req.Method, start, err)
		return r.fail(nullID, req.Method, domain.RPCInternalError, domain.MessageFrom(err))
	}
	return r.reply(http.StatusOK, req.Method, domain.RPCStatusOK, response{ID: req.ID, Result: result})
}

func (r *Router) initialize(params json.RawMessage) *mcp.InitializeResult {
	var p initializeParams
	if len(params) > 0 {
		_ = json.Unmarshal(params, &p)
	}
	version := p.ProtocolVersion
	if version == "" {
		version = domain.DefaultProtocolVersion
	}
	return &mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		ServerInfo: &mcp.Implementation{Name: domain.ServerName, Version: r.version},
	}
}

func (r *Router) callTool(ctx context.Context, params json.RawMessage) (*mcp.CallToolResult, error) {
	var p callParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, domain.NewProtocolError(domain.RPCInvalidRequest, "Invalid params")
		}
	}
	out, err := r.tools.Call(ctx, p.Name, p.Arguments)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTool) {
			return nil, domain.NewProtocolError(domain.RPCMethodNotFound, "Unknown tool: "+p.Name)
		}
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out.Text}},
		IsError: out.Failed(),
	}, nil
}

func (r *Router) fail(id json.RawMessage, method string, code int64, message string) Reply {
	protoErr := domain.NewProtocolError(code, message)
	return r.reply(protoErr.HTTPStatus(), method, protoErr.Status(), response{ID: id, Error: protoErr})
}

func (r *Router) reply(status int, method string, rpc domain.RPCStatus, resp response) Reply {
	body, err := encode(resp)
	if err != nil {
		r.logger.Error("encode response failed", telemetry.MethodField(method), zap.Error(err))
		status, rpc = http.StatusInternalServerError, domain.RPCStatusInternal
		body, _ = encode(response{ID: nullID, Error: domain.NewProtocolError(domain.RPCInternalError, "encode response")})
	}
	return Reply{Status: status, Body: body, Method: method, RPC: rpc}
}

func (r *Router) logError(ctx context.Context, method string, start time.Time, err error) {
	telemetry.LoggerWithRequest(ctx, r.logger).Warn("route failed",
		telemetry.EventField(telemetry.EventRouteError),
		telemetry.MethodField(method),
		telemetry.DurationField(time.Since(start)),
		zap.Error(err),
	)
}
