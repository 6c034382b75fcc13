package domain

import "errors"

var (
	// Ошибка отсутствующего имени клиента.
	ErrCustomerNameRequired = errors.New("customerName is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отсутствующего времени запроса.
	ErrRequestedAtRequired = errors.New("requestedAt is required")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrItemProductIDRequired = errors.New("item productId is required")
	// Ошибка отсутствующей категории в позиции.
	ErrItemCategoryRequired = errors.New("item category is required")
	// Ошибка при некорректном количестве товара (< 1).
	ErrItemQtyInvalid = errors.New("item quantity must be at least 1")

	// ErrKeyNotFound возвращается хранилищем, когда ключ отсутствует или истёк его TTL.
	ErrKeyNotFound = errors.New("key not found")
	// ErrOrderNotFound возвращается, когда запись заказа отсутствует в общем хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDecodeFailure сигнализирует о повреждённой записи в хранилище.
	// На пути чтения трактуется как отсутствие записи.
	ErrDecodeFailure = errors.New("stored record is malformed")
	// ErrStatusRegression возвращается при попытке перезаписать заказ
	// с терминальным статусом записью со статусом PENDING.
	ErrStatusRegression = errors.New("order status may not move back to PENDING")
)

// IsNotFound проверяет, является ли ошибка отсутствием записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrKeyNotFound)
}
