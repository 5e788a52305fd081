package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRedisModel: карточка товара в кэше. Цена хранится строкой, чтобы не терять точность.
type ProductRedisModel struct {
	ID                int64               `json:"id"`
	VendorID          int64               `json:"vendor_id"`
	Name              string              `json:"name"`
	Description       string              `json:"description,omitempty"`
	SKU               string              `json:"sku"`
	Price             decimal.Decimal     `json:"price"`
	StockQuantity     int                 `json:"stock_quantity"`
	LowStockThreshold int                 `json:"low_stock_threshold"`
	IsActive          bool                `json:"is_active"`
	Variants          map[string][]string `json:"variants,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         *time.Time          `json:"updated_at,omitempty"`
}
