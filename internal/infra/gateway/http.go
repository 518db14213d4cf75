// Package gateway binds the router to its transports: a plain HTTP POST
// endpoint and an MCP stdio server.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/router"
	"kculture/internal/infra/telemetry"
)

const (
	corsAllowMethods = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, mcp-session-id, x-session-id, Accept"
)

type HTTPOptions struct {
	Addr            string
	MaxRequestBytes int64
	AllowedOrigin   string
	Version         string
	ToolNames       []string
	Logger          *zap.Logger
}

// HTTPGateway serves the JSON-RPC endpoint. GET answers a health document,
// OPTIONS answers the CORS preflight.
type HTTPGateway struct {
	handler  router.Handler
	addr     string
	maxBytes int64
	origin   string
	version  string
	tools    []string
	logger   *zap.Logger
}

type healthDocument struct {
	Status  string   `json:"status"`
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Tools   []string `json:"tools"`
}

func NewHTTPGateway(handler router.Handler, opts HTTPOptions) *HTTPGateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultHTTPListenAddress
	}
	maxBytes := opts.MaxRequestBytes
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxRequestBytes
	}
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	tools := opts.ToolNames
	if tools == nil {
		tools = domain.ToolNames
	}
	return &HTTPGateway{
		handler:  handler,
		addr:     addr,
		maxBytes: maxBytes,
		origin:   origin,
		version:  opts.Version,
		tools:    tools,
		logger:   logger.Named("gateway").With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceGateway)),
	}
}

// Run serves until ctx is cancelled.
func (g *HTTPGateway) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              g.addr,
		Handler:           g,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return telemetry.ServeUntilDone(ctx, server, "http gateway", g.logger, telemetry.TransportField("http"))
}

func (g *HTTPGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, meta := telemetry.RequestMetaFromHTTP(r)
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", g.origin)
	header.Set("Access-Control-Allow-Methods", corsAllowMethods)
	header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	header.Set(telemetry.RequestIDHeader, meta.RequestID)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, healthDocument{
			Status:  "ok",
			Name:    domain.ServerName,
			Version: g.version,
			Tools:   g.tools,
		})
	case http.MethodPost:
		g.servePost(ctx, w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

func (g *HTTPGateway) servePost(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := telemetry.LoggerWithRequest(ctx, g.logger)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status, msg := http.StatusBadRequest, "Parse error"
		if errors.As(err, &tooLarge) {
			status, msg = http.StatusRequestEntityTooLarge, "Request body too large"
		}
		logger.Warn("request rejected",
			telemetry.EventField(telemetry.EventRequestRejected),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]any{
			"jsonrpc": domain.JSONRPCVersion,
			"id":      nil,
			"error":   domain.NewProtocolError(domain.RPCParseError, msg),
		})
		return
	}

	reply := g.handler.Handle(ctx, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = w.Write(reply.Body)

	logger.Debug("request handled",
		telemetry.EventField(telemetry.EventRequestReceived),
		telemetry.MethodField(reply.Method),
		zap.Int("status", reply.Status),
		telemetry.DurationField(time.Since(start)),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
