package inventorycheck

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/domain"
	"github.com/liormulay/order-processing-system/internal/inventory"
	"github.com/liormulay/order-processing-system/internal/messaging/kafka"
	"github.com/liormulay/order-processing-system/internal/metrics"
	"github.com/liormulay/order-processing-system/internal/storage"
)

// Service реализует этап проверки склада: по событию о приёме заказа
// перечитывает заказ из общего хранилища, прогоняет движок правил против
// статического снимка каталога, фиксирует терминальный статус и публикует
// событие результата. Обработчик идемпотентен: повторная доставка того же
// события даёт тот же статус и тот же список отказов, перезапись безвредна.
type Service struct {
	store       *storage.OrderStore
	publisher   domain.EventPublisher
	catalog     domain.Catalog
	resultTopic string
	logger      *log.Entry
	metrics     *metrics.PipelineMetrics
	now         func() time.Time
}

// NewService создаёт этап проверки склада с заданным снимком каталога.
func NewService(store *storage.OrderStore, publisher domain.EventPublisher, catalog domain.Catalog,
	resultTopic string, logger *log.Entry, m *metrics.PipelineMetrics) *Service {

	if logger == nil {
		logger = log.WithField("component", "inventory-check")
	}
	if resultTopic == "" {
		resultTopic = kafka.TopicInventoryCheckResults
	}
	if catalog == nil {
		catalog = inventory.DefaultCatalog()
	}
	return &Service{
		store:       store,
		publisher:   publisher,
		catalog:     catalog,
		resultTopic: resultTopic,
		logger:      logger,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock подменяет источник "текущей даты" для проверки сроков годности.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// HandleMessage — обработчик сообщений топика order-events.
// Возвращённая ошибка уводит сообщение в повтор и затем в DLQ; сюда попадает
// и случай, когда событие доставлено раньше, чем стала видна запись заказа.
func (s *Service) HandleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	start := time.Now()

	event, err := kafka.ParseOrderSubmittedEvent(message)
	if err != nil {
		return err
	}

	logger := s.logger.WithField("order_id", event.OrderID)
	logger.Info("received order submitted event")

	order, err := s.store.GetOrder(ctx, event.OrderID)
	if err != nil {
		logger.WithError(err).Error("failed to rehydrate order from shared store")
		return fmt.Errorf("rehydrate order %s: %w", event.OrderID, err)
	}

	approved, missing := inventory.Evaluate(order.OrderID, order.Items, s.catalog, s.now())

	status := domain.OrderStatusRejected
	if approved {
		status = domain.OrderStatusApproved
	}

	if len(missing) > 0 {
		if err := s.store.SaveMissingItems(ctx, order.OrderID, missing); err != nil {
			logger.WithError(err).Error("failed to store missing items")
			return err
		}
	}

	order.Status = status
	if err := s.store.SaveOrder(ctx, order); err != nil {
		logger.WithError(err).Error("failed to update order status")
		return err
	}

	if err := s.publisher.Publish(s.resultTopic, order.OrderID, kafka.NewInventoryResultEvent(order.OrderID, status)); err != nil {
		logger.WithError(err).Error("failed to enqueue inventory result event")
	}

	s.metrics.OrderDecided(approved)
	s.metrics.ObserveCheckDuration(time.Since(start))

	logger.WithFields(log.Fields{
		"status":        status,
		"missing_items": len(missing),
	}).Info("inventory check completed")

	return nil
}
