package telemetry

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in and out of the HTTP binding.
const RequestIDHeader = "x-request-id"

const maxRequestIDLength = 128

type requestKey struct{}

// RequestMeta identifies one request across log lines.
type RequestMeta struct {
	RequestID string
	TraceID   string
	SpanID    string
}

// Fields returns the non-empty identifiers as log fields.
func (m RequestMeta) Fields() []zap.Field {
	var fields []zap.Field
	if m.RequestID != "" {
		fields = append(fields, RequestIDField(m.RequestID))
	}
	if m.TraceID != "" {
		fields = append(fields, TraceIDField(m.TraceID))
	}
	if m.SpanID != "" {
		fields = append(fields, SpanIDField(m.SpanID))
	}
	return fields
}

func requestMeta(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestKey{}).(RequestMeta)
	return meta, ok
}

// EnsureRequestMeta attaches request metadata to ctx. An empty requestID
// reuses the one already on ctx, or mints a uuid when there is none.
func EnsureRequestMeta(ctx context.Context, requestID string) (context.Context, RequestMeta) {
	if ctx == nil {
		ctx = context.Background()
	}
	if requestID == "" {
		if existing, ok := requestMeta(ctx); ok {
			requestID = existing.RequestID
		}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	meta := RequestMeta{RequestID: requestID}
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		meta.TraceID, meta.SpanID = span.TraceID().String(), span.SpanID().String()
	}
	return context.WithValue(ctx, requestKey{}, meta), meta
}

// RequestMetaFromHTTP honours a caller-supplied request id header when it looks sane.
func RequestMetaFromHTTP(r *http.Request) (context.Context, RequestMeta) {
	requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if len(requestID) > maxRequestIDLength || strings.ContainsAny(requestID, "\r\n") {
		requestID = ""
	}
	return EnsureRequestMeta(r.Context(), requestID)
}

// LoggerWithRequest tags base with the request identifiers found on ctx.
func LoggerWithRequest(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	meta, ok := requestMeta(ctx)
	if !ok {
		return base
	}
	return base.With(meta.Fields()...)
}
