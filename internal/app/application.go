package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kculture/internal/app/tools"
	"kculture/internal/domain"
	"kculture/internal/infra/gateway"
	"kculture/internal/infra/router"
	"kculture/internal/infra/telemetry"
)

// Application holds the wired dependency graph for one configuration.
type Application struct {
	cfg      domain.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  domain.Metrics
	health   *telemetry.HealthTracker
	tools    *tools.Service
	router   router.Handler
}

// NewApplication wires upstream adapters, the tool service and the router.
func NewApplication(cfg domain.Config, logger *zap.Logger) (*Application, error) {
	logger = coreLogger(logger)
	registry := NewMetricsRegistry()
	metrics := NewMetrics(registry)
	health := NewHealthTracker()

	client := NewUpstreamClient(cfg.Upstream, metrics, health, logger)
	service, err := NewToolService(cfg, client, metrics, logger)
	if err != nil {
		return nil, err
	}
	for _, name := range cfg.MissingCredentials() {
		logger.Warn("api key not configured",
			telemetry.EventField(telemetry.EventMissingAPIKey),
			zap.String("env", name),
		)
	}

	return &Application{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		health:   health,
		tools:    service,
		router:   NewRouter(service, metrics, logger),
	}, nil
}

func (a *Application) Tools() *tools.Service {
	return a.tools
}

func (a *Application) Router() router.Handler {
	return a.router
}

// RunHTTP serves the JSON-RPC endpoint and the observability server until ctx
// is cancelled or either fails.
func (a *Application) RunHTTP(ctx context.Context) error {
	gw := gateway.NewHTTPGateway(a.router, gateway.HTTPOptions{
		Addr:            a.cfg.HTTP.ListenAddress,
		MaxRequestBytes: a.cfg.HTTP.MaxRequestBytes,
		AllowedOrigin:   a.cfg.HTTP.AllowedOrigin,
		Version:         Version,
		ToolNames:       a.toolNames(),
		Logger:          a.logger,
	})
	return a.run(ctx, gw.Run)
}

// RunStdio serves the MCP stdio transport. The observability server still
// runs when enabled, since it never writes to stdout.
func (a *Application) RunStdio(ctx context.Context) error {
	gw := gateway.NewStdioGateway(a.tools, gateway.StdioOptions{
		Version: Version,
		Logger:  a.logger,
	})
	return a.run(ctx, gw.Run)
}

func (a *Application) run(ctx context.Context, serve func(context.Context) error) error {
	a.logger.Info("starting",
		zap.String("version", Version),
		zap.String("build", Build),
		zap.Int("tools", len(a.tools.Tools())),
	)

	// The observability server stops once the transport returns, even cleanly.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
			Addr:          a.cfg.Observability.ListenAddress,
			EnableMetrics: a.cfg.Observability.EnableMetrics,
			EnableHealthz: a.cfg.Observability.EnableHealthz,
			Health:        a.health,
			Registry:      a.registry,
		}, a.logger)
	})
	group.Go(func() error {
		defer cancel()
		return serve(ctx)
	})

	a.health.SetStatus(telemetry.HealthStatusOK)
	err := group.Wait()
	a.health.SetStatus(telemetry.HealthStatusStopping)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *Application) toolNames() []string {
	catalog := a.tools.Tools()
	names := make([]string, 0, len(catalog))
	for _, tool := range catalog {
		names = append(names, tool.Name)
	}
	return names
}
