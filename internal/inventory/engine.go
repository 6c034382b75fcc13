package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/liormulay/order-processing-system/internal/domain"
)

// Evaluate проверяет позиции заказа против снимка каталога и возвращает решение:
// одобрен ли заказ и список непрошедших позиций в исходном порядке.
// Для каждой позиции побеждает первое сработавшее правило:
//  1. товара нет в каталоге;
//  2. категория позиции не совпадает с категорией в каталоге;
//  3. правило категории (standard / perishable / digital / неизвестная).
//
// Функция чистая: не изменяет каталог, не выполняет I/O. orderID нужен только
// для диагностики вызывающей стороны. now задаёт "текущую дату" для проверки
// сроков годности perishable-товаров.
func Evaluate(orderID string, items []domain.OrderItem, catalog domain.Catalog, now time.Time) (bool, []domain.MissingItem) {
	var missing []domain.MissingItem

	for _, item := range items {
		if mi := checkItem(item, catalog, now); mi != nil {
			missing = append(missing, *mi)
		}
	}

	return len(missing) == 0, missing
}

// checkItem возвращает nil, если позиция доступна, иначе описание отказа.
func checkItem(item domain.OrderItem, catalog domain.Catalog, now time.Time) *domain.MissingItem {
	info, ok := catalog[item.ProductID]
	if !ok {
		return &domain.MissingItem{
			ProductID:         item.ProductID,
			RequestedQuantity: item.Quantity,
			AvailableQuantity: 0,
			Reason:            "Product not found in catalog",
		}
	}

	if !strings.EqualFold(item.Category, info.Category) {
		return &domain.MissingItem{
			ProductID:         item.ProductID,
			RequestedQuantity: item.Quantity,
			AvailableQuantity: info.AvailableQuantity,
			Reason:            fmt.Sprintf("Category mismatch. Expected: %s, Actual: %s", info.Category, item.Category),
		}
	}

	switch strings.ToLower(item.Category) {
	case domain.CategoryStandard:
		return checkQuantity(item, info)
	case domain.CategoryPerishable:
		// Просроченный товар отклоняется даже при достаточном количестве.
		if info.ExpirationDate != nil && dateBefore(*info.ExpirationDate, now) {
			return &domain.MissingItem{
				ProductID:         item.ProductID,
				RequestedQuantity: item.Quantity,
				AvailableQuantity: info.AvailableQuantity,
				Reason:            fmt.Sprintf("Product expired on %s", info.ExpirationDate.Format("2006-01-02")),
			}
		}
		return checkQuantity(item, info)
	case domain.CategoryDigital:
		// Цифровые товары всегда доступны; количество в каталоге не имеет смысла.
		return nil
	default:
		return &domain.MissingItem{
			ProductID:         item.ProductID,
			RequestedQuantity: item.Quantity,
			AvailableQuantity: info.AvailableQuantity,
			Reason:            fmt.Sprintf("Unknown category: %s", item.Category),
		}
	}
}

// checkQuantity реализует общую проверку остатка: граница включительная,
// requested == available считается доступным.
func checkQuantity(item domain.OrderItem, info domain.ProductInfo) *domain.MissingItem {
	if info.AvailableQuantity >= item.Quantity {
		return nil
	}
	return &domain.MissingItem{
		ProductID:         item.ProductID,
		RequestedQuantity: item.Quantity,
		AvailableQuantity: info.AvailableQuantity,
		Reason:            "Insufficient quantity",
	}
}

// dateBefore сравнивает только календарные даты, игнорируя время суток.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
