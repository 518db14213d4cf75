package router

import (
	"context"

	"kculture/internal/domain"
)

// MetricRouter records one RPC observation per handled request.
type MetricRouter struct {
	inner   Handler
	metrics domain.Metrics
}

func NewMetricRouter(inner Handler, metrics domain.Metrics) *MetricRouter {
	return &MetricRouter{inner: inner, metrics: metrics}
}

func (r *MetricRouter) Handle(ctx context.Context, body []byte) Reply {
	reply := r.inner.Handle(ctx, body)
	if r.metrics != nil {
		r.metrics.ObserveRPC(reply.Method, reply.RPC)
	}
	return reply
}
