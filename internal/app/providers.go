package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"kculture/internal/app/tools"
	"kculture/internal/domain"
	"kculture/internal/infra/router"
	"kculture/internal/infra/telemetry"
	"kculture/internal/infra/upstream"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewUpstreamClient(cfg domain.UpstreamConfig, metrics domain.Metrics, health *telemetry.HealthTracker, logger *zap.Logger) *upstream.Client {
	return upstream.NewClient(upstream.ClientOptions{
		Timeout:   cfg.Timeout,
		Logger:    logger,
		Metrics:   metrics,
		Health:    health,
		UserAgent: domain.ServerName + "/" + Version,
	})
}

func NewToolService(cfg domain.Config, client *upstream.Client, metrics domain.Metrics, logger *zap.Logger) (*tools.Service, error) {
	return tools.NewService(tools.Options{
		Movies:       upstream.NewKOBIS(client, cfg.Upstream.KOBIS),
		Performances: upstream.NewKOPIS(client, cfg.Upstream.KOPIS),
		Tour:         upstream.NewTourAPI(client, cfg.Upstream.Tour),
		Lookups:      domain.DefaultLookups(),
		Tools:        cfg.Tools,
		Logger:       logger,
		Metrics:      metrics,
	})
}

func NewRouter(service *tools.Service, metrics domain.Metrics, logger *zap.Logger) router.Handler {
	return router.NewMetricRouter(router.New(service, router.Options{
		Version: Version,
		Logger:  logger,
	}), metrics)
}
