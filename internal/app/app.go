package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/domain"
	"github.com/liormulay/order-processing-system/internal/handler"
	healthcheck "github.com/liormulay/order-processing-system/internal/health"
	"github.com/liormulay/order-processing-system/internal/inventory"
	"github.com/liormulay/order-processing-system/internal/messaging/kafka"
	"github.com/liormulay/order-processing-system/internal/metrics"
	"github.com/liormulay/order-processing-system/internal/service/intake"
	"github.com/liormulay/order-processing-system/internal/service/inventorycheck"
	"github.com/liormulay/order-processing-system/internal/service/notification"
	"github.com/liormulay/order-processing-system/internal/storage"
	"github.com/liormulay/order-processing-system/internal/storage/memory"
	"github.com/liormulay/order-processing-system/internal/storage/postgres"
	"github.com/liormulay/order-processing-system/internal/storage/redis"
	"github.com/liormulay/order-processing-system/internal/version"
)

// storeHandle объединяет открытый KV-бэкенд с его служебными операциями.
type storeHandle struct {
	kv    domain.KeyValueStore
	ping  func(ctx context.Context) error
	close func() error
}

// openStore открывает бэкенд общего хранилища согласно конфигурации.
// Для postgres дополнительно запускается cleanup-воркер просроченных записей.
func openStore(ctx context.Context, cfg Config, logger *log.Entry) (*storeHandle, error) {
	switch cfg.StoreBackend {
	case "redis":
		store, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.WithField("addr", cfg.RedisAddr).Info("redis store initialized")
		return &storeHandle{kv: store, ping: store.Ping, close: store.Close}, nil

	case "postgres":
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		go postgres.NewCleanupWorker(store, logger.WithField("component", "kv-cleanup-worker"), cfg.CleanupInterval, 0).Run(ctx)
		logger.Info("postgres store initialized")
		return &storeHandle{kv: store, ping: store.Ping, close: store.Close}, nil

	case "memory":
		logger.Warn("using in-memory store, state is not shared between services")
		store := memory.NewStore()
		return &storeHandle{
			kv:    store,
			ping:  func(context.Context) error { return nil },
			close: func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// RunOrderService запускает сервис приёма заказов: HTTP ingress + этап intake.
func RunOrderService(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "order-service")
	pipelineMetrics := metrics.NewPipelineMetrics()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(store.close, logger, "store")

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, pipelineMetrics)
	if err != nil {
		return err
	}
	defer closeQuietly(producer.Close, logger, "kafka producer")
	logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")

	orderStore := storage.NewOrderStore(store.kv, logger.WithField("layer", "storage"))
	intakeSvc := intake.NewService(orderStore, producer, cfg.OrderEventsTopic,
		logger.WithField("layer", "intake"), pipelineMetrics)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.NewOrderHandler(intakeSvc, logger.WithField("layer", "http")).RegisterRoutes(router)

	healthHandler := newHealthHandler(store)
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	ingressSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("order ingress listening on %s", cfg.HTTPAddr)
		errCh <- ingressSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownHTTP(ingressSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// RunInventoryService запускает сервис проверки склада: consumer топика
// order-events с ограниченными повторами и DLQ.
func RunInventoryService(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "inventory-service")
	pipelineMetrics := metrics.NewPipelineMetrics()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(store.close, logger, "store")

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, pipelineMetrics)
	if err != nil {
		return err
	}
	defer closeQuietly(producer.Close, logger, "kafka producer")

	orderStore := storage.NewOrderStore(store.kv, logger.WithField("layer", "storage"))
	checkSvc := inventorycheck.NewService(orderStore, producer, inventory.DefaultCatalog(),
		cfg.InventoryResultsTopic, logger.WithField("layer", "inventory-check"), pipelineMetrics)

	consumer, err := kafka.NewConsumerWithDLQ(cfg.KafkaBrokers, cfg.InventoryGroupID,
		[]string{cfg.OrderEventsTopic}, checkSvc.HandleMessage,
		producer, cfg.DeadLetterTopic, cfg.ConsumerMaxRetries, pipelineMetrics)
	if err != nil {
		return err
	}

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	defer closeQuietly(consumer.Stop, logger, "kafka consumer")

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, newHealthHandler(store))
	defer shutdownHTTP(metricsSrv, logger)

	<-ctx.Done()
	return ctx.Err()
}

// RunNotificationService запускает сервис уведомлений: best-effort consumer
// топика inventory-check-results, без DLQ.
func RunNotificationService(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "notification-service")
	pipelineMetrics := metrics.NewPipelineMetrics()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(store.close, logger, "store")

	orderStore := storage.NewOrderStore(store.kv, logger.WithField("layer", "storage"))
	notifySvc := notification.NewService(orderStore, logger.WithField("layer", "notification"), pipelineMetrics)

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.NotificationGroupID,
		[]string{cfg.InventoryResultsTopic}, notifySvc.HandleMessage)
	if err != nil {
		return err
	}

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	defer closeQuietly(consumer.Stop, logger, "kafka consumer")

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, newHealthHandler(store))
	defer shutdownHTTP(metricsSrv, logger)

	<-ctx.Done()
	return ctx.Err()
}

func newHealthHandler(store *storeHandle) *healthcheck.Handler {
	h := healthcheck.NewHandler(version.Version())
	h.RegisterChecker("store", healthcheck.NewPingChecker("store", store.ping))
	return h
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("metrics available at %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func closeQuietly(closeFn func() error, logger *log.Entry, name string) {
	if err := closeFn(); err != nil {
		logger.WithError(err).Warnf("failed to close %s", name)
	}
}
