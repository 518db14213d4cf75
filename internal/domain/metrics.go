package domain

import "time"

// RPCStatus is the outcome label for a JSON-RPC request.
type RPCStatus string

const (
	RPCStatusOK             RPCStatus = "ok"
	RPCStatusInvalidRequest RPCStatus = "invalid_request"
	RPCStatusNotFound       RPCStatus = "method_not_found"
	RPCStatusInternal       RPCStatus = "internal_error"
)

// ToolOutcome is the outcome label for one tool invocation.
type ToolOutcome string

const (
	ToolOutcomeSuccess ToolOutcome = "success"
	ToolOutcomeFailure ToolOutcome = "failure"
)

// UpstreamOutcome classifies one upstream fetch.
type UpstreamOutcome string

const (
	UpstreamOutcomeSuccess UpstreamOutcome = "success"
	UpstreamOutcomeTimeout UpstreamOutcome = "timeout"
	UpstreamOutcomeNetwork UpstreamOutcome = "network"
	UpstreamOutcomeStatus  UpstreamOutcome = "status"
	UpstreamOutcomeDecode  UpstreamOutcome = "decode"
)

// Metrics records observability signals.
type Metrics interface {
	ObserveRPC(method string, status RPCStatus)
	ObserveToolCall(tool string, outcome ToolOutcome, duration time.Duration)
	ObserveUpstream(source string, outcome UpstreamOutcome, duration time.Duration)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) ObserveRPC(string, RPCStatus)                           {}
func (NoopMetrics) ObserveToolCall(string, ToolOutcome, time.Duration)     {}
func (NoopMetrics) ObserveUpstream(string, UpstreamOutcome, time.Duration) {}
