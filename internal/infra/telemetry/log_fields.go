package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldTool       = "tool"
	FieldMethod     = "method"
	FieldSource     = "source"
	FieldOutcome    = "outcome"
	FieldEndpoint   = "endpoint"
	FieldDurationMs = "duration_ms"
	FieldLogSource  = "log_source"
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
	FieldTransport  = "transport"
)

const (
	EventRequestReceived = "request_received"
	EventRequestRejected = "request_rejected"
	EventRouteError      = "route_error"
	EventRoutePanic      = "route_panic"
	EventToolCall        = "tool_call"
	EventToolFailure     = "tool_failure"
	EventUpstreamFetch   = "upstream_fetch"
	EventUpstreamFailure = "upstream_failure"
	EventEnrichment      = "facility_enrichment"
	EventMissingAPIKey   = "missing_api_key"
)

const (
	LogSourceCore     = "core"
	LogSourceUpstream = "upstream"
	LogSourceGateway  = "gateway"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ToolField(tool string) zap.Field {
	return zap.String(FieldTool, tool)
}

func MethodField(method string) zap.Field {
	return zap.String(FieldMethod, method)
}

func SourceField(source string) zap.Field {
	return zap.String(FieldSource, source)
}

func OutcomeField(outcome string) zap.Field {
	return zap.String(FieldOutcome, outcome)
}

func EndpointField(endpoint string) zap.Field {
	return zap.String(FieldEndpoint, endpoint)
}

func TransportField(transport string) zap.Field {
	return zap.String(FieldTransport, transport)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
