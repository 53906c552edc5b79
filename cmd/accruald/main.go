// Command accruald runs the order-event accrual service: it receives platform
// order webhooks, resolves the promo code to a pro, accrues revenue toward the
// shop's tier threshold, and deposits earned store credit.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"procredit/config"
	"procredit/directory"
	"procredit/ledger"
	"procredit/observability/logging"
	"procredit/observability/otel"
	"procredit/storage"
	"procredit/webhook"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML configuration file")
		env        = flag.String("env", "production", "deployment environment label")
	)
	flag.Parse()

	logger := logging.Setup("accruald", *env)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Tracing {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: cfg.Observability.ServiceName,
			Environment: *env,
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:    os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
			Headers:     otel.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
			Traces:      true,
			Metrics:     cfg.Observability.Metrics,
		})
		if err != nil {
			logger.Error("init telemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown", "error", err)
			}
		}()
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("open storage", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	dirClient := directory.NewHTTPClient(cfg.Directory.BaseURL, cfg.Directory.Token, cfg.Directory.Timeout)
	resolver := directory.NewResolver(dirClient, cfg.Directory.PageSize, cfg.Directory.ScanLimit)
	gateway := ledger.NewHTTPGateway(cfg.Ledger.BaseURL, cfg.Ledger.Token, cfg.Ledger.Timeout)

	handler := webhook.NewHandler(resolver, dirClient, gateway, store, cfg.Webhook.Secret, cfg.Ledger.Currency, logger, nil)
	admin := webhook.NewAdminHandler(store, cfg.AdminToken, logger)
	limiter := webhook.NewRateLimiter(cfg.Webhook.RatePerSecond, cfg.Webhook.Burst, logger)

	var root http.Handler = webhook.NewRouter(webhook.RouterConfig{Handler: handler, Admin: admin, RateLimiter: limiter})
	if cfg.Observability.Tracing {
		root = otelhttp.NewHandler(root, "accruald")
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      root,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("accrual service listening", "address", cfg.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("listen", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
