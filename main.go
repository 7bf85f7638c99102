package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/events"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	domainpayment "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/kafka"
	infraobs "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore"
	"github.com/Zhima-Mochi/minishop-storefront/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger, err := zaplogger.New(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		File:    cfg.LogFile,
		Level:   cfg.LogLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger.Zap())

	systemLogger := logging.WithTrace(baseLogger.Zap(), logging.SystemTraceID, logging.SystemSpanID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := oteltrace.Init(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		systemLogger.Fatal("tracing_init_failed", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			systemLogger.Warn("tracing_shutdown_error", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tel := infraobs.NewWithRegistry(
		oteltrace.New(cfg.ServiceName),
		baseLogger,
		prometrics.New(registry, "", ""),
	)

	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		systemLogger.Fatal("db_open_failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		systemLogger.Fatal("db_migrate_failed", zap.Error(err))
	}

	var paymentGateway domainpayment.Gateway = gateway.NewMock()
	if !cfg.Payment.Mock() {
		signed, err := gateway.NewSigned(gateway.Config{
			KeyID:     cfg.Payment.KeyID,
			KeySecret: cfg.Payment.KeySecret,
			BaseURL:   cfg.Payment.BaseURL,
			Timeout:   cfg.Payment.Timeout,
		})
		if err != nil {
			systemLogger.Fatal("gateway_init_failed", zap.Error(err))
		}
		paymentGateway = signed
	} else {
		systemLogger.Warn("payment_gateway_mock_mode")
	}

	// In-process event bus; the relay forwards everything to Kafka when brokers are configured.
	bus := outbox.NewBus(baseLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())
	subscriber := workerpresentation.NewSubscriber(bus, baseLogger)

	var sink domoutbox.Sink
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.Dial(cfg.KafkaBrokers, cfg.KafkaTopic, baseLogger)
		if err != nil {
			systemLogger.Fatal("kafka_dial_failed", zap.Strings("brokers", cfg.KafkaBrokers), zap.Error(err))
		}
		defer func() { _ = producer.Close() }()
		sink = producer
	}

	var soldOut application.UseCase[domorder.PaidEvent, *appinventory.SoldOutResult] = appinventory.NewSoldOutUseCase(store, bus, tel)
	appinventory.NewWorker(subscriber, soldOut, tel).Start()
	events.NewRelay(subscriber, sink, tel).Start()

	handler := httppresentation.NewHandler(httppresentation.Services{
		Cart:          appcart.NewService(store, tel),
		Orders:        apporder.NewQueries(store, tel),
		Admin:         appinventory.NewAdminService(store, bus, tel),
		CreateOrder:   apporder.NewCreateOrderUseCase(store, paymentGateway, bus, cfg.Payment.Currency, tel),
		UpdateStatus:  apporder.NewUpdateStatusUseCase(store, bus, tel),
		Verify:        apppayment.NewVerifyPaymentUseCase(store, paymentGateway, bus, tel),
		ReportFailure: apppayment.NewReportFailureUseCase(store, bus, tel),
		ManualPayment: apppayment.NewManualUpdateUseCase(store, bus, tel),
	}, httppresentation.Options{
		ServiceName: cfg.ServiceName,
		JWTSecret:   []byte(cfg.JWTSecret),
		Gatherer:    registry,
		Health:      store.Ping,
	}, tel)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.Bool("payment_mock", cfg.Payment.Mock()),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}
