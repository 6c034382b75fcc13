package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/domain"
	"github.com/liormulay/order-processing-system/internal/messaging/kafka"
	"github.com/liormulay/order-processing-system/internal/metrics"
	"github.com/liormulay/order-processing-system/internal/storage"
)

// orderIDPrefix + 8 символов UUID в верхнем регистре. Уникальность
// вероятностная; коллизии — принятый риск, без проверки занятости.
const orderIDPrefix = "ORD-"

// Service реализует этап приёма заказа: создание записи PENDING,
// запись в общее хранилище и публикация тонкого события о приёме.
type Service struct {
	store     *storage.OrderStore
	publisher domain.EventPublisher
	topic     string
	logger    *log.Entry
	metrics   *metrics.PipelineMetrics
}

// NewService создаёт этап приёма заказов.
func NewService(store *storage.OrderStore, publisher domain.EventPublisher, topic string,
	logger *log.Entry, m *metrics.PipelineMetrics) *Service {

	if logger == nil {
		logger = log.WithField("component", "order-intake")
	}
	if topic == "" {
		topic = kafka.TopicOrderEvents
	}
	return &Service{
		store:     store,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
		metrics:   m,
	}
}

// Submit принимает заказ и возвращает его идентификатор.
// Инвариант порядка: запись в хранилище строго предшествует публикации.
// Сбой записи прерывает обработку до публикации — событие о заказе, который
// никто не сможет перечитать, не имеет смысла. Сбой публикации, напротив,
// не откатывает запись: заказ остаётся PENDING, исход доставки наблюдается
// асинхронно и только логируется.
func (s *Service) Submit(ctx context.Context, customerName string, items []domain.OrderItem, requestedAt time.Time) (string, error) {
	order := domain.Order{
		OrderID:      generateOrderID(),
		CustomerName: customerName,
		Items:        items,
		RequestedAt:  requestedAt,
		Status:       domain.OrderStatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return "", fmt.Errorf("invalid order request: %w", errors.Join(errs...))
	}

	if err := s.store.SaveOrder(ctx, order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.OrderID).Error("failed to store order")
		return "", fmt.Errorf("failed to process order %s: %w", order.OrderID, err)
	}

	if err := s.publisher.Publish(s.topic, order.OrderID, kafka.NewOrderSubmittedEvent(order.OrderID)); err != nil {
		// Заказ уже durably записан; необработанное событие оставляет его
		// PENDING — принятый риск, без автоматического восстановления.
		s.logger.WithError(err).WithField("order_id", order.OrderID).Error("failed to enqueue order submitted event")
	}

	s.metrics.OrderSubmitted()
	s.logger.WithFields(log.Fields{
		"order_id": order.OrderID,
		"customer": order.CustomerName,
		"items":    len(order.Items),
	}).Info("order accepted")

	return order.OrderID, nil
}

// Status возвращает текущий статус заказа для внешнего lookup.
func (s *Service) Status(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	return s.store.GetOrderStatus(ctx, orderID)
}

func generateOrderID() string {
	return orderIDPrefix + strings.ToUpper(uuid.NewString()[:8])
}
