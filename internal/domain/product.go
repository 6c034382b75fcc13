package domain

import "time"

// Категории товаров, известные движку проверки склада. Сравнение категорий
// при диспетчеризации правил регистронезависимое.
const (
	CategoryStandard   = "standard"
	CategoryPerishable = "perishable"
	CategoryDigital    = "digital"
)

// ProductInfo описывает товар в каталоге склада.
type ProductInfo struct {
	Category          string     `json:"category"`
	AvailableQuantity int        `json:"availableQuantity"`
	// ExpirationDate имеет смысл только для категории perishable.
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}

// Catalog — снимок каталога товаров: productId → ProductInfo.
// Снимок неизменяем на время проверки; резервирование и списание стока
// в этой системе не выполняются.
type Catalog map[string]ProductInfo

// MissingItem описывает позицию, не прошедшую проверку склада.
type MissingItem struct {
	ProductID         string `json:"productId"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	Reason            string `json:"reason"`
}
