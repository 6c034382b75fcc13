package inventory

import (
	"time"

	"github.com/liormulay/order-processing-system/internal/domain"
)

// DefaultCatalog возвращает статический снимок каталога, с которым работает
// сервис проверки склада. Снимок передаётся в Evaluate явно, а не читается
// из глобального состояния, поэтому движок тестируется изолированно.
func DefaultCatalog() domain.Catalog {
	return domain.Catalog{
		"P1001": {Category: domain.CategoryStandard, AvailableQuantity: 10},
		"P1002": {Category: domain.CategoryPerishable, AvailableQuantity: 3, ExpirationDate: datePtr(2025, time.July, 1)},
		"P1003": {Category: domain.CategoryDigital, AvailableQuantity: 0},
		"P1004": {Category: domain.CategoryStandard, AvailableQuantity: 5},
		"P1005": {Category: domain.CategoryPerishable, AvailableQuantity: 2, ExpirationDate: datePtr(2025, time.June, 25)},
		"P1006": {Category: domain.CategoryDigital, AvailableQuantity: 100},
	}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}
