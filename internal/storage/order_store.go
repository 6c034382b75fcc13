package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/domain"
)

// TTL записей в общем хранилище. Детали отказов живут нарочно меньше заказа:
// это временная диагностика, а не долговечное состояние.
const (
	OrderTTL        = 24 * time.Hour
	MissingItemsTTL = 10 * time.Minute
)

// OrderKey возвращает ключ записи заказа.
func OrderKey(orderID string) string {
	return "order:" + orderID
}

// MissingItemsKey возвращает ключ побочной записи с непрошедшими позициями.
func MissingItemsKey(orderID string) string {
	return "missingItems:" + orderID
}

// OrderStore — типизированный слой над KeyValueStore: владеет раскладкой ключей,
// JSON-кодеком со стабильными именами полей и контрактом единственного писателя.
// Контракт ownership проверяется на границе записи: заказ с терминальным статусом
// нельзя перезаписать записью со статусом PENDING.
type OrderStore struct {
	kv     domain.KeyValueStore
	logger *log.Entry
}

// NewOrderStore создаёт OrderStore поверх произвольного KV-бэкенда.
func NewOrderStore(kv domain.KeyValueStore, logger *log.Entry) *OrderStore {
	if logger == nil {
		logger = log.WithField("component", "order-store")
	}
	return &OrderStore{kv: kv, logger: logger}
}

// SaveOrder записывает полную запись заказа, обновляя её TTL.
// Попытка увести терминальный статус обратно в PENDING отклоняется
// с ErrStatusRegression. Повторная запись того же терминального статуса
// безвредна: переобработка сообщения шиной должна оставаться идемпотентной.
func (s *OrderStore) SaveOrder(ctx context.Context, order domain.Order) error {
	existing, err := s.GetOrder(ctx, order.OrderID)
	if err == nil && existing.Status.Terminal() && order.Status == domain.OrderStatusPending {
		s.logger.WithFields(log.Fields{
			"order_id": order.OrderID,
			"stored":   existing.Status,
		}).Warn("rejected write that would move a terminal order back to PENDING")
		return domain.ErrStatusRegression
	}

	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order %s: %w", order.OrderID, err)
	}

	if err := s.kv.Put(ctx, OrderKey(order.OrderID), string(data), OrderTTL); err != nil {
		return fmt.Errorf("failed to store order %s: %w", order.OrderID, err)
	}

	s.logger.WithField("order_id", order.OrderID).Debug("order stored")
	return nil
}

// GetOrder возвращает запись заказа или ErrOrderNotFound, если её нет.
// Повреждённая запись логируется и на пути чтения трактуется как отсутствующая.
func (s *OrderStore) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	raw, err := s.kv.Get(ctx, OrderKey(orderID))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("failed to read order %s: %w", orderID, err)
	}

	var order domain.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("stored order record is malformed")
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return order, nil
}

// GetOrderStatus — read-through доступ к статусу для внешнего lookup.
func (s *OrderStore) GetOrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// SaveMissingItems записывает список непрошедших позиций с коротким TTL.
func (s *OrderStore) SaveMissingItems(ctx context.Context, orderID string, items []domain.MissingItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal missing items for order %s: %w", orderID, err)
	}

	if err := s.kv.Put(ctx, MissingItemsKey(orderID), string(data), MissingItemsTTL); err != nil {
		return fmt.Errorf("failed to store missing items for order %s: %w", orderID, err)
	}

	s.logger.WithField("order_id", orderID).Debug("missing items stored")
	return nil
}

// GetMissingItems возвращает детали отказа или ErrKeyNotFound, если их TTL
// уже истёк либо запись не создавалась.
func (s *OrderStore) GetMissingItems(ctx context.Context, orderID string) ([]domain.MissingItem, error) {
	raw, err := s.kv.Get(ctx, MissingItemsKey(orderID))
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read missing items for order %s: %w", orderID, err)
	}

	var items []domain.MissingItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("stored missing items record is malformed")
		return nil, domain.ErrDecodeFailure
	}

	return items, nil
}
