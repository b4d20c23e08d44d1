package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"wallet/internal/amqp"
	"wallet/internal/backend"
	"wallet/internal/cli"
	"wallet/internal/config"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/services"
	"wallet/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	logger.Info("Starting wallet-worker", log.FieldWindow, string(cfg.AlertsWindow()))

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// the worker owns its broker connection so it can reconnect
	backendCfg.AMQPURL = ""

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendCfg)
	cancelStartup()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	m := metrics.New()
	evaluator := services.NewAlertEvaluator(res.Store, cfg.AlertsWindow(), m, logger)
	alerts := worker.NewAlertWorker(evaluator, res.Store, m, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", log.FieldError, err, "port", cfg.MetricsPort)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown error", log.FieldError, err)
		}
	})

	if err := alerts.StartupSweep(ctx); err != nil {
		logger.Error("Startup alert sweep failed", log.FieldError, err)
	}

	consumer := &worker.Reconnector{
		Dial: func() (worker.Consumer, error) {
			return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		},
		Handler: alerts.HandleWalletEvent,
		Backoff: amqp.Backoff,
		Logger:  logger,
	}
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	<-done
	logger.Info("Worker shutdown complete")
}
