package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kculture/internal/domain"
)

type HTTPServerOptions struct {
	Addr          string
	EnableMetrics bool
	EnableHealthz bool
	Health        *HealthTracker
	Registry      prometheus.Gatherer
}

func (o HTTPServerOptions) handler() http.Handler {
	mux := http.NewServeMux()
	if o.EnableMetrics {
		gatherer := o.Registry
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if o.EnableHealthz {
		mux.Handle("/healthz", o.Health)
	}
	return mux
}

// StartHTTPServer serves /metrics and /healthz until ctx is cancelled.
// It returns at once when both are disabled.
func StartHTTPServer(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error {
	if !opts.EnableMetrics && !opts.EnableHealthz {
		return nil
	}
	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           opts.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ServeUntilDone(ctx, server, "observability server", logger,
		zap.Bool("metrics", opts.EnableMetrics),
		zap.Bool("healthz", opts.EnableHealthz),
	)
}

// ServeUntilDone runs server until ctx is cancelled, then shuts it down
// within domain.DefaultShutdownTimeout.
func ServeUntilDone(ctx context.Context, server *http.Server, name string, logger *zap.Logger, fields ...zap.Field) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	failed := make(chan error, 1)
	go func() {
		logger.Info(name+" listening", append([]zap.Field{zap.String("addr", server.Addr)}, fields...)...)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("%s failed to start: %w", name, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), domain.DefaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(name+" shutdown error", zap.Error(err))
		return err
	}
	logger.Info(name + " stopped")
	return nil
}
