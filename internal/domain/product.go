package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold: порог по умолчанию, совпадает с DEFAULT в миграции.
const DefaultLowStockThreshold = 10

// Variants: схема вариантов товара: атрибут -> допустимые значения (color: [red, blue]).
type Variants map[string][]string

// Product описывает товар каталога. StockQuantity меняется только через складской журнал.
type Product struct {
	ID                int64
	Name              string
	Description       string
	SKU               string
	Price             decimal.Decimal
	StockQuantity     int
	LowStockThreshold int
	IsActive          bool
	VendorID          int64
	Variants          Variants
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

func NewProduct(name, description, sku string, price decimal.Decimal, lowStockThreshold int, vendorID int64, variants Variants) *Product {
	return &Product{
		Name:              name,
		Description:       description,
		SKU:               sku,
		Price:             price,
		LowStockThreshold: lowStockThreshold,
		IsActive:          true,
		VendorID:          vendorID,
		Variants:          variants,
	}
}

// IsLowStock сообщает, опустился ли остаток до порога.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
