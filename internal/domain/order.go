package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в конвейере обработки.
type OrderStatus string

const (
	// OrderStatusPending — заказ принят, проверка склада ещё не выполнена.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusApproved — все позиции прошли проверку склада. Терминальный статус.
	OrderStatusApproved OrderStatus = "APPROVED"
	// OrderStatusRejected — хотя бы одна позиция не прошла проверку. Терминальный статус.
	OrderStatusRejected OrderStatus = "REJECTED"
)

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Единственные легальные переходы: PENDING → APPROVED и PENDING → REJECTED.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending && next.Terminal()
}

// OrderItem представляет одну позицию заказа. Неизменяема после создания заказа.
// Некорректное количество (<1) представимо, но отбраковывается валидацией на входе,
// а не конструированием.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category"`
}

// Order агрегирует состояние заказа. Создаётся со статусом PENDING на этапе приёма,
// ровно один раз переводится в терминальный статус этапом проверки склада
// и никогда не изменяется этапом уведомлений.
type Order struct {
	OrderID      string      `json:"orderId"`
	CustomerName string      `json:"customerName"`
	Items        []OrderItem `json:"items"`
	RequestedAt  time.Time   `json:"requestedAt"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerName == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.RequestedAt.IsZero() {
		errs = append(errs, ErrRequestedAtRequired)
	}

	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrItemProductIDRequired)
		}
		if item.Category == "" {
			errs = append(errs, ErrItemCategoryRequired)
		}
		if item.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
	}

	return errs
}
