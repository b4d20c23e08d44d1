package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"wallet/internal/backend"
	"wallet/internal/cli"
	"wallet/internal/config"
	apphttp "wallet/internal/http"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/middleware/session"
	"wallet/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendCfg)
	cancelStartup()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	m := metrics.New()
	ledger := services.NewLedger(res.Store, res.Publisher(), m, logger)
	dashboard := services.NewDashboardService(res.Store, logger)
	sessions := session.NewVerifier(cfg.SessionSecret, cfg.SessionCookie, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Store:              res.Store,
		Ledger:             ledger,
		Dashboard:          dashboard,
		Sessions:           sessions,
		Metrics:            m,
		Logger:             logger,
		DefaultWindow:      cfg.Window(),
		StoreTimeout:       cfg.StoreTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AuthURL:            cfg.AuthURL,
	})

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting wallet server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", res.AMQP != nil,
		log.FieldWindow, string(cfg.Window()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
