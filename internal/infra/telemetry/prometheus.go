package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kculture/internal/domain"
)

type PrometheusMetrics struct {
	rpcRequests      *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		rpcRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kculture_rpc_requests_total",
				Help: "Total number of JSON-RPC requests by method and status",
			},
			[]string{"method", "status"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kculture_tool_calls_total",
				Help: "Total number of tool invocations by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kculture_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"tool"},
		),
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kculture_upstream_requests_total",
				Help: "Total number of upstream API fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kculture_upstream_duration_seconds",
				Help:    "Duration of upstream API fetches in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
			},
			[]string{"source"},
		),
	}
}

func (p *PrometheusMetrics) ObserveRPC(method string, status domain.RPCStatus) {
	p.rpcRequests.WithLabelValues(rpcMethodLabel(method), string(status)).Inc()
}

func (p *PrometheusMetrics) ObserveToolCall(tool string, outcome domain.ToolOutcome, duration time.Duration) {
	p.toolCalls.WithLabelValues(tool, string(outcome)).Inc()
	p.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveUpstream(source string, outcome domain.UpstreamOutcome, duration time.Duration) {
	p.upstreamRequests.WithLabelValues(source, string(outcome)).Inc()
	p.upstreamDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// rpcMethodLabel keeps label cardinality bounded against arbitrary client input.
func rpcMethodLabel(method string) string {
	switch method {
	case "initialize", "notifications/initialized", "tools/list", "tools/call", "ping":
		return method
	default:
		return "other"
	}
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
