package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/liormulay/order-processing-system/internal/domain"
)

// Topics конвейера. Имена настраиваются через окружение, семантика фиксирована:
// оба топика ключуются orderId, что сохраняет порядок событий одного заказа
// внутри партиции.
const (
	TopicOrderEvents           = "order-events"
	TopicInventoryCheckResults = "inventory-check-results"
	TopicDeadLetterQueue       = "orders.dlq"
)

// OrderSubmittedEvent сигнализирует о принятом заказе. Событие нарочно тонкое:
// оно несёт только идентификатор, полное состояние потребитель перечитывает
// из общего хранилища ("thin event, fat state").
type OrderSubmittedEvent struct {
	OrderID   string    `json:"orderId"`
	Timestamp time.Time `json:"timestamp"`
}

// InventoryResultEvent сигнализирует об исходе проверки склада.
type InventoryResultEvent struct {
	OrderID   string             `json:"orderId"`
	Status    domain.OrderStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewOrderSubmittedEvent создаёт событие приёма заказа с текущим временем.
func NewOrderSubmittedEvent(orderID string) *OrderSubmittedEvent {
	return &OrderSubmittedEvent{
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	}
}

// NewInventoryResultEvent создаёт событие результата проверки с текущим временем.
func NewInventoryResultEvent(orderID string, status domain.OrderStatus) *InventoryResultEvent {
	return &InventoryResultEvent{
		OrderID:   orderID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// ParseOrderSubmittedEvent парсит OrderSubmittedEvent из сообщения.
func ParseOrderSubmittedEvent(message *sarama.ConsumerMessage) (*OrderSubmittedEvent, error) {
	var event OrderSubmittedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order submitted event: %w", err)
	}
	if event.OrderID == "" {
		return nil, fmt.Errorf("order submitted event without orderId")
	}
	return &event, nil
}

// ParseInventoryResultEvent парсит InventoryResultEvent из сообщения.
func ParseInventoryResultEvent(message *sarama.ConsumerMessage) (*InventoryResultEvent, error) {
	var event InventoryResultEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory result event: %w", err)
	}
	if event.OrderID == "" {
		return nil, fmt.Errorf("inventory result event without orderId")
	}
	return &event, nil
}
