package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VariantSelection: выбранные значения вариантов (size: M).
type VariantSelection map[string]string

// OrderItem: позиция заказа. Цена фиксируется на момент оформления и больше не меняется.
type OrderItem struct {
	ID         int64
	OrderID    int64
	ProductID  int64
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Variant    VariantSelection
	CreatedAt  time.Time

	Product *Product // заполняется при чтении развернутого заказа
}

func NewOrderItem(productID int64, quantity int, unitPrice decimal.Decimal, variant VariantSelection) *OrderItem {
	return &OrderItem{
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: LineTotal(unitPrice, quantity),
		Variant:    variant,
	}
}

// LineTotal = unitPrice * quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
