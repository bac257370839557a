package app

import (
	"context"
	"embed"
	"errors"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"vehicle-orders/config"
	"vehicle-orders/internal/controller/http"
	"vehicle-orders/internal/controller/http/handlers"
	"vehicle-orders/internal/domain/order"
	"vehicle-orders/internal/external/kafka"
	"vehicle-orders/internal/external/notifier"
	"vehicle-orders/internal/external/opensearch"
	"vehicle-orders/internal/external/paygate"
	order_repo "vehicle-orders/internal/repo/order"
	"vehicle-orders/internal/webhook"
	"vehicle-orders/pkg/health"
	"vehicle-orders/pkg/logger"
	"vehicle-orders/pkg/metrics"
	"vehicle-orders/pkg/postgres"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed migrations/*.sql
var MIGRATION_FS embed.FS

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) {
	l := logger.NewWithOptions(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ApplyMigrations(cfg.PgURL, MIGRATION_FS); err != nil {
		l.Fatal(fmt.Errorf("app - Run - ApplyMigrations: %w", err))
	}

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pool.Close()

	orderRepo := order_repo.NewPgOrderRepo(pool)

	verifier, err := paygate.New(l, cfg.PaygateBaseURL, cfg.PaygateVerifyPath,
		&nethttp.Client{Timeout: cfg.HTTPPaygateClientTimeout})
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - paygate.New: %w", err))
	}

	orderNotifier := buildNotifier(l, cfg)
	sink := buildTransitionSink(ctx, l, cfg)

	orderService := order.NewOrderService(orderRepo, verifier, orderNotifier, sink, l)

	processor := buildProcessor(l, cfg, orderService)

	engine := NewGinEngine(l)

	orderHandler := handlers.NewOrderHandler(orderService, processor)
	router := http.NewRouter(orderHandler)
	router.SetUp(engine)

	setUpOps(engine, cfg, pool)

	if cfg.NotificationMode == config.NotificationModeKafka {
		StartWorkers(ctx, l, cfg, orderService)
	}

	srv := &nethttp.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	go func() {
		l.Info("HTTP server listening: addr=%s mode=%s", srv.Addr, cfg.NotificationMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			l.Fatal(fmt.Errorf("app - Run - srv.ListenAndServe: %w", err))
		}
	}()

	<-ctx.Done()
	l.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("HTTP server shutdown failed: error=%v", err)
	}
}

func NewGinEngine(l *logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(metrics.GinMiddleware(), logger.CorrelationMiddleware(), l.GinRequestLogger(), gin.Recovery())
	return engine
}

// setUpOps registers liveness, readiness and metrics endpoints.
func setUpOps(engine *gin.Engine, cfg config.Config, pool *postgres.Postgres) {
	checkers := []health.Checker{health.NewPostgresChecker(pool.Pool)}
	if cfg.NotificationMode == config.NotificationModeKafka {
		checkers = append(checkers, health.NewKafkaChecker(cfg.KafkaBrokers))
	}
	registry := health.NewRegistry(checkers...)

	engine.GET("/healthz", health.LivenessHandler())
	engine.GET("/readyz", health.ReadinessHandler(registry, health.DefaultTimeout))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
}

// buildNotifier prefers the broker-backed notifier and falls back to logging
// when no brokers are configured.
func buildNotifier(l *logger.Logger, cfg config.Config) order.Notifier {
	if len(cfg.KafkaBrokers) == 0 {
		l.Warn("No Kafka brokers configured, completion notices will only be logged")
		return notifier.NewLogNotifier(l)
	}

	publisher := kafka.NewPublisher(l, cfg.KafkaBrokers, cfg.KafkaCompletionNoticesTopic)
	return notifier.NewKafkaNotifier(l, publisher, notifier.DefaultRetryConfig())
}

func buildTransitionSink(ctx context.Context, l *logger.Logger, cfg config.Config) order.TransitionSink {
	if len(cfg.OpensearchUrls) == 0 {
		return opensearch.NopSink{}
	}

	sink, err := opensearch.NewTransitionSink(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexTransitions)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - opensearch.NewTransitionSink: %w", err))
	}
	return sink
}

func buildProcessor(l *logger.Logger, cfg config.Config, orderService *order.OrderService) webhook.Processor {
	if cfg.NotificationMode != config.NotificationModeKafka {
		return webhook.NewSyncProcessor(orderService)
	}

	publisher := kafka.NewPublisher(l, cfg.KafkaBrokers, cfg.KafkaNotificationsTopic)
	return webhook.NewAsyncProcessor(publisher)
}
