package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/domain"
	"github.com/liormulay/order-processing-system/internal/messaging/kafka"
	"github.com/liormulay/order-processing-system/internal/metrics"
	"github.com/liormulay/order-processing-system/internal/storage"
)

// Service реализует терминальный этап конвейера: по событию результата
// проверки перечитывает заказ и отрисовывает человекочитаемый исход.
// Этап ничего не пишет в хранилище и работает best-effort: любая проблема
// логируется, сообщение не уходит в повтор.
type Service struct {
	store   *storage.OrderStore
	logger  *log.Entry
	metrics *metrics.PipelineMetrics
}

// NewService создаёт этап уведомлений.
func NewService(store *storage.OrderStore, logger *log.Entry, m *metrics.PipelineMetrics) *Service {
	if logger == nil {
		logger = log.WithField("component", "notification")
	}
	return &Service{store: store, logger: logger, metrics: m}
}

// HandleMessage — обработчик сообщений топика inventory-check-results.
// Всегда возвращает nil: уведомление best-effort, повтор и DLQ ему не нужны.
func (s *Service) HandleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	event, err := kafka.ParseInventoryResultEvent(message)
	if err != nil {
		s.logger.WithError(err).Error("failed to parse inventory result event, dropping")
		return nil
	}

	logger := s.logger.WithField("order_id", event.OrderID)
	logger.Info("received inventory check result")

	order, err := s.store.GetOrder(ctx, event.OrderID)
	if err != nil {
		logger.WithError(err).Warn("order not available for notification, dropping")
		return nil
	}

	var rendered string
	if event.Status == domain.OrderStatusApproved {
		rendered = RenderConfirmation(order, event)
		for _, line := range strings.Split(rendered, "\n") {
			logger.Info(line)
		}
	} else {
		missing, err := s.store.GetMissingItems(ctx, event.OrderID)
		if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
			// Деталь отказа могла истечь по TTL или оказаться повреждённой;
			// уведомление деградирует, но не проваливается.
			logger.WithError(err).Warn("missing items detail unavailable")
		}
		rendered = RenderRejection(order, missing, event)
		for _, line := range strings.Split(rendered, "\n") {
			logger.Warn(line)
		}
	}

	s.metrics.NotificationRendered(string(event.Status))
	return nil
}

// RenderConfirmation отрисовывает подтверждение одобренного заказа.
func RenderConfirmation(order domain.Order, event *kafka.InventoryResultEvent) string {
	var b strings.Builder
	b.WriteString("=== ORDER CONFIRMATION ===\n")
	fmt.Fprintf(&b, "Order ID: %s\n", order.OrderID)
	fmt.Fprintf(&b, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Status: %s\n", domain.OrderStatusApproved)
	b.WriteString("Items:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  - Product: %s, Quantity: %d, Category: %s\n", item.ProductID, item.Quantity, item.Category)
	}
	fmt.Fprintf(&b, "Requested at: %s\n", order.RequestedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Processed at: %s\n", event.Timestamp.Format("2006-01-02 15:04:05 MST"))
	b.WriteString("==========================")
	return b.String()
}

// RenderRejection отрисовывает отказ. При отсутствии деталей (истёкший TTL
// побочной записи) выводится деградированный вариант без списка позиций.
func RenderRejection(order domain.Order, missing []domain.MissingItem, event *kafka.InventoryResultEvent) string {
	var b strings.Builder
	b.WriteString("=== ORDER REJECTION ===\n")
	fmt.Fprintf(&b, "Order ID: %s\n", order.OrderID)
	fmt.Fprintf(&b, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Status: %s\n", domain.OrderStatusRejected)
	b.WriteString("Missing/Unavailable Items:\n")
	if len(missing) > 0 {
		for _, mi := range missing {
			fmt.Fprintf(&b, "  - Product: %s, Requested: %d, Available: %d, Reason: %s\n",
				mi.ProductID, mi.RequestedQuantity, mi.AvailableQuantity, mi.Reason)
		}
	} else {
		b.WriteString("  - No specific missing items information available\n")
	}
	fmt.Fprintf(&b, "Requested at: %s\n", order.RequestedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Processed at: %s\n", event.Timestamp.Format("2006-01-02 15:04:05 MST"))
	b.WriteString("=======================")
	return b.String()
}
