package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kculture/internal/domain"
	"kculture/internal/infra/router"
)

type stubHandler struct {
	body  []byte
	reply router.Reply
}

func (s *stubHandler) Handle(_ context.Context, body []byte) router.Reply {
	s.body = body
	return s.reply
}

func newTestGateway(handler router.Handler) *HTTPGateway {
	return NewHTTPGateway(handler, HTTPOptions{Version: "9.9.9", MaxRequestBytes: 64})
}

func TestHTTPGateway_Preflight(t *testing.T) {
	g := newTestGateway(&stubHandler{})
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsAllowMethods, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, corsAllowHeaders, rec.Header().Get("Access-Control-Allow-Headers"))
	assert.NotEmpty(t, rec.Header().Get("x-request-id"))
}

func TestHTTPGateway_Health(t *testing.T) {
	g := newTestGateway(&stubHandler{})
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc healthDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "ok", doc.Status)
	assert.Equal(t, domain.ServerName, doc.Name)
	assert.Equal(t, "9.9.9", doc.Version)
	assert.Equal(t, domain.ToolNames, doc.Tools)
}

func TestHTTPGateway_PostForwardsBody(t *testing.T) {
	handler := &stubHandler{reply: router.Reply{Status: http.StatusBadRequest, Body: []byte(`{"jsonrpc":"2.0","id":1,"error":{}}`)}}
	g := newTestGateway(handler)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0"}`))
	req.Header.Set("x-request-id", "req-123")
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `{"jsonrpc":"2.0"}`, string(handler.body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-123", rec.Header().Get("x-request-id"))
	body, _ := io.ReadAll(rec.Body)
	assert.JSONEq(t, string(handler.reply.Body), string(body))
}

func TestHTTPGateway_RejectsLargeBodies(t *testing.T) {
	handler := &stubHandler{}
	g := newTestGateway(handler)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 200))))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, handler.body)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Nil(t, env["id"])
	assert.EqualValues(t, domain.RPCParseError, env["error"].(map[string]any)["code"])
}

func TestHTTPGateway_MethodNotAllowed(t *testing.T) {
	g := newTestGateway(&stubHandler{})
	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		g.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
	}
}

func TestHTTPGateway_EndToEndWithRouter(t *testing.T) {
	tools := &stubTools{out: domain.ToolOutput{Text: "결과"}}
	g := NewHTTPGateway(router.New(tools, router.Options{Version: "1.0.0"}), HTTPOptions{})
	server := httptest.NewServer(g)
	defer server.Close()

	resp, err := http.Post(server.URL, "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":"x","method":"tools/call","params":{"name":"culture_get_box_office","arguments":{}}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env struct {
		ID     string `json:"id"`
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "x", env.ID)
	require.Len(t, env.Result.Content, 1)
	assert.Equal(t, "text", env.Result.Content[0].Type)
	assert.Equal(t, "결과", env.Result.Content[0].Text)
}
