package converter

import (
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID                int64           `db:"id"`
	VendorID          int64           `db:"vendor_id"`
	Name              string          `db:"name"`
	Description       string          `db:"description"`
	SKU               string          `db:"sku"`
	Price             decimal.Decimal `db:"price"`
	StockQuantity     int             `db:"stock_quantity"`
	LowStockThreshold int             `db:"low_stock_threshold"`
	IsActive          bool            `db:"is_active"`
	Variants          domain.Variants `db:"variants"` // jsonb
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         *time.Time      `db:"updated_at"`
}

// InventoryLogModel представляет запись таблицы inventory_logs.
type InventoryLogModel struct {
	ID            int64     `db:"id"`
	ProductID     int64     `db:"product_id"`
	Type          string    `db:"type"`
	Quantity      int       `db:"quantity"`
	PreviousStock int       `db:"previous_stock"`
	NewStock      int       `db:"new_stock"`
	Reason        string    `db:"reason"`
	UserID        *int64    `db:"user_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// OrderModel представляет запись таблицы orders. Адреса хранятся в jsonb.
type OrderModel struct {
	ID              int64           `db:"id"`
	OrderNumber     string          `db:"order_number"`
	UserID          int64           `db:"user_id"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	ShippingAddress domain.Address  `db:"shipping_address"`
	BillingAddress  domain.Address  `db:"billing_address"`
	Status          string          `db:"status"`
	ShippedAt       *time.Time      `db:"shipped_at"`
	DeliveredAt     *time.Time      `db:"delivered_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       *time.Time      `db:"updated_at"`
}

// OrderItemModel представляет запись таблицы order_items.
type OrderItemModel struct {
	ID         int64                   `db:"id"`
	OrderID    int64                   `db:"order_id"`
	ProductID  int64                   `db:"product_id"`
	Quantity   int                     `db:"quantity"`
	UnitPrice  decimal.Decimal         `db:"unit_price"`
	TotalPrice decimal.Decimal         `db:"total_price"`
	Variant    domain.VariantSelection `db:"variant"` // jsonb
	CreatedAt  time.Time               `db:"created_at"`
}

// UserModel представляет запись таблицы users.
type UserModel struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         string     `db:"role"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID int64      `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
