package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"kculture/internal/domain"
)

type fakeTools struct {
	mu       sync.Mutex
	calls    []string
	lastArgs json.RawMessage
	output   domain.ToolOutput
	panicMsg string
}

func (f *fakeTools) Tools() []*mcp.Tool {
	return []*mcp.Tool{{Name: domain.ToolBoxOffice, InputSchema: map[string]any{"type": "object"}}}
}

func (f *fakeTools) Call(_ context.Context, name string, args json.RawMessage) (domain.ToolOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if name != domain.ToolBoxOffice {
		return domain.ToolOutput{}, domain.E(domain.CodeInvalidRequest, "tools.call", "Unknown tool: "+name, domain.ErrUnknownTool)
	}
	f.calls = append(f.calls, name)
	f.lastArgs = args
	return f.output, nil
}

type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func handle(t *testing.T, r Handler, body string) (Reply, envelope) {
	t.Helper()
	reply := r.Handle(context.Background(), []byte(body))
	var env envelope
	require.NoError(t, json.Unmarshal(reply.Body, &env), string(reply.Body))
	assert.Equal(t, "2.0", env.JSONRPC)
	return reply, env
}

func TestRouter_Initialize(t *testing.T) {
	r := New(&fakeTools{}, Options{Version: "1.2.3"})

	reply, env := handle(t, r, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`)
	require.Equal(t, http.StatusOK, reply.Status)
	assert.JSONEq(t, `1`, string(env.ID))

	var result map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, "2025-06-18", result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, domain.ServerName, info["name"])
	assert.Equal(t, "1.2.3", info["version"])
	assert.Contains(t, result["capabilities"], "tools")

	_, env = handle(t, r, `{"jsonrpc":"2.0","id":"a","method":"initialize"}`)
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, domain.DefaultProtocolVersion, result["protocolVersion"])
}

func TestRouter_PingAndInitialized(t *testing.T) {
	r := New(&fakeTools{}, Options{})

	for _, method := range []string{MethodPing, MethodInitialized} {
		reply, env := handle(t, r, `{"jsonrpc":"2.0","id":7,"method":"`+method+`"}`)
		assert.Equal(t, http.StatusOK, reply.Status)
		assert.JSONEq(t, `{}`, string(env.Result))
	}
}

func TestRouter_ToolsList(t *testing.T) {
	r := New(&fakeTools{}, Options{})

	_, env := handle(t, r, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	var result mcp.ListToolsResult
	require.NoError(t, json.Unmarshal(env.Result, &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, domain.ToolBoxOffice, result.Tools[0].Name)
}

func TestRouter_ToolsCallEchoesID(t *testing.T) {
	tools := &fakeTools{output: domain.ToolOutput{Text: "hello"}}
	r := New(tools, Options{})

	for _, id := range []string{`42`, `"req-1"`, `null`} {
		reply, env := handle(t, r, `{"jsonrpc":"2.0","id":`+id+`,"method":"tools/call","params":{"name":"culture_get_box_office","arguments":{"limit":3}}}`)
		require.Equal(t, http.StatusOK, reply.Status)
		assert.JSONEq(t, id, string(env.ID))
		assert.JSONEq(t, `{"content":[{"type":"text","text":"hello"}]}`, string(env.Result))
	}
	assert.JSONEq(t, `{"limit":3}`, string(tools.lastArgs))
}

func TestRouter_ToolFailureIsSuccessEnvelope(t *testing.T) {
	tools := &fakeTools{output: domain.ToolOutput{
		Text:    "❌ 영화 정보를 찾을 수 없습니다.",
		Failure: &domain.Failure{Code: domain.CodeNotFound, Message: "영화 정보를 찾을 수 없습니다."},
	}}
	r := New(tools, Options{})

	reply, env := handle(t, r, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"culture_get_box_office"}}`)
	require.Equal(t, http.StatusOK, reply.Status)
	require.Nil(t, env.Error)
	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.True(t, result.IsError)
}

func TestRouter_UnknownTool(t *testing.T) {
	tools := &fakeTools{}
	r := New(tools, Options{})

	reply, env := handle(t, r, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"nope"}}`)
	assert.Equal(t, http.StatusBadRequest, reply.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.RPCMethodNotFound, env.Error.Code)
	assert.Equal(t, "Unknown tool: nope", env.Error.Message)
	assert.JSONEq(t, `4`, string(env.ID))
	assert.Empty(t, tools.calls)
}

func TestRouter_ProtocolErrors(t *testing.T) {
	r := New(&fakeTools{}, Options{})

	cases := []struct {
		name   string
		body   string
		status int
		code   int64
		msg    string
	}{
		{"bad version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, http.StatusBadRequest, domain.RPCInvalidRequest, "Invalid JSON-RPC version"},
		{"missing version", `{"id":1,"method":"ping"}`, http.StatusBadRequest, domain.RPCInvalidRequest, "Invalid JSON-RPC version"},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, http.StatusBadRequest, domain.RPCMethodNotFound, "Unknown method: resources/list"},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, http.StatusBadRequest, domain.RPCInvalidRequest, "Missing method"},
		{"not json", `not json`, http.StatusBadRequest, domain.RPCParseError, "Parse error"},
		{"array", `[1]`, http.StatusBadRequest, domain.RPCParseError, "Parse error"},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":[1]}`, http.StatusBadRequest, domain.RPCInvalidRequest, "Invalid params"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, env := handle(t, r, tc.body)
			assert.Equal(t, tc.status, reply.Status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, tc.msg, env.Error.Message)
			assert.Nil(t, env.Result)
		})
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	r := New(&fakeTools{panicMsg: "boom"}, Options{})

	reply, env := handle(t, r, `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"culture_get_box_office"}}`)
	assert.Equal(t, http.StatusInternalServerError, reply.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.RPCInternalError, env.Error.Code)
	assert.Equal(t, "boom", env.Error.Message)
	assert.JSONEq(t, `null`, string(env.ID))
	assert.Equal(t, domain.RPCStatusInternal, reply.RPC)
	assert.Equal(t, MethodToolsCall, reply.Method)
}

type recordingMetrics struct {
	domain.NoopMetrics
	methods  []string
	statuses []domain.RPCStatus
}

func (m *recordingMetrics) ObserveRPC(method string, status domain.RPCStatus) {
	m.methods = append(m.methods, method)
	m.statuses = append(m.statuses, status)
}

func TestMetricRouter_ObservesEveryRequest(t *testing.T) {
	metrics := &recordingMetrics{}
	r := NewMetricRouter(New(&fakeTools{}, Options{}), metrics)

	handle(t, r, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	handle(t, r, `{"jsonrpc":"2.0","id":1,"method":"nope"}`)
	handle(t, r, `garbage`)

	assert.Equal(t, []string{"ping", "nope", ""}, metrics.methods)
	assert.Equal(t, []domain.RPCStatus{domain.RPCStatusOK, domain.RPCStatusNotFound, domain.RPCStatusInvalidRequest}, metrics.statuses)
}

func TestRouter_UnknownMethodIsNotLoggedAsFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := New(&fakeTools{}, Options{Logger: zap.New(core)})

	reply, env := handle(t, r, `{"jsonrpc":"2.0","id":"a","method":"prompts/list"}`)
	assert.Equal(t, http.StatusBadRequest, reply.Status)
	assert.Equal(t, domain.RPCStatusNotFound, reply.RPC)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.RPCMethodNotFound, env.Error.Code)
	assert.Equal(t, "Unknown method: prompts/list", env.Error.Message)
	assert.JSONEq(t, `"a"`, string(env.ID))
	assert.Zero(t, logs.FilterMessage("route failed").Len())
}
