package router

import (
	"bytes"
	"encoding/json"

	"kculture/internal/domain"
)

var nullID = json.RawMessage("null")

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string                `json:"jsonrpc"`
	ID      json.RawMessage       `json:"id"`
	Result  any                   `json:"result,omitempty"`
	Error   *domain.ProtocolError `json:"error,omitempty"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

// decodeRequest parses the envelope. ok is false when body is not a JSON object.
func decodeRequest(body []byte) (request, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return request{}, false
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return request{}, false
	}
	if len(req.ID) == 0 {
		req.ID = nullID
	}
	return req, true
}

func encode(resp response) ([]byte, error) {
	resp.JSONRPC = domain.JSONRPCVersion
	if len(resp.ID) == 0 {
		resp.ID = nullID
	}
	return json.Marshal(resp)
}
