package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"registration/internal/api"
	"registration/internal/api/handler/v1handler"
	"registration/internal/config"
	"registration/internal/registration"
	"registration/pkg/logger"
	"registration/pkg/metrics"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func setupDispatcher(ctx context.Context, cfg *config.Config) (registration.Dispatcher, func(ctx context.Context)) {
	mp, err := metrics.NewPrometheusMeterProvider(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}
	otel.SetMeterProvider(mp)

	recorder, err := metrics.NewRecorder(mp.Meter("registration"))
	if err != nil {
		logger.Fatal(ctx, "could not create metrics recorder", zap.Error(err))
	}

	patrons := newPatronClient(cfg)
	if patrons == nil {
		logger.Info(ctx, "patron API not configured, registrations are email only")
	}

	transport := newTransport(cfg)
	if err := transport.Ready(); err != nil {
		// requests fail with a configuration error until credentials are set
		logger.Warn(ctx, "email transport is not ready", zap.Error(err))
	}

	d := registration.New(registration.Deps{
		Transport: transport,
		Patrons:   patrons,
		Renderer:  newRenderer(ctx, cfg),
		Metrics:   recorder,
	}, registration.Options{})

	return d, func(ctx context.Context) {
		if err := mp.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "could not stop meter provider", zap.Error(err))
		}
	}
}

func setupServer(ctx context.Context, cfg *config.Config, d registration.Dispatcher) func(ctx context.Context) {
	server := api.NewServer(ctx, api.Deps{Deps: v1handler.Deps{Dispatcher: d}}, api.NewOptions(cfg))

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the registration API server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, stopMetrics := setupDispatcher(ctx, cfg)
			stopWebserver := setupServer(ctx, cfg, d)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			stopMetrics(shutdownCtx)
		},
	}

	return cmd
}
