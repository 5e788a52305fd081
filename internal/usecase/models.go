package usecase

import (
	"io"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// INVENTORY

// AdjustStockReq: изменение остатка товара на Delta (может быть отрицательным).
type AdjustStockReq struct {
	ProductID int64
	Delta     int
	Reason    string
	ActorID   *int64
}

func NewAdjustStockReq(productID int64, delta int, reason string, actorID *int64) *AdjustStockReq {
	return &AdjustStockReq{
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		ActorID:   actorID,
	}
}

// ORDERS

// OrderLineReq: строка корзины.
type OrderLineReq struct {
	ProductID int64
	Quantity  int
	Variant   domain.VariantSelection
}

type CreateOrderReq struct {
	UserID          int64
	Items           []OrderLineReq
	ShippingAddress domain.Address
	BillingAddress  domain.Address
}

func NewCreateOrderReq(userID int64, items []OrderLineReq, shipping, billing domain.Address) *CreateOrderReq {
	return &CreateOrderReq{
		UserID:          userID,
		Items:           items,
		ShippingAddress: shipping,
		BillingAddress:  billing,
	}
}

// OrderFilter: параметры выборки заказов. UserID ограничивает выборку заказами покупателя.
type OrderFilter struct {
	UserID  *int64
	Status  *domain.OrderStatus
	Page    int
	PerPage int
}

type OrdersPage struct {
	Orders  []domain.Order
	Total   int
	Page    int
	PerPage int
}

// PRODUCTS

type ProductFilter struct {
	Search     string
	VendorID   *int64
	ActiveOnly bool
	Page       int
	PerPage    int
}

type ProductsPage struct {
	Products []domain.Product
	Total    int
	Page     int
	PerPage  int
}

type CreateProductReq struct {
	Name              string
	Description       string
	SKU               string
	Price             decimal.Decimal
	StockQuantity     int
	LowStockThreshold *int
	Variants          domain.Variants
	VendorID          int64
}

// UpdateProductReq: частичное обновление; nil означает «не менять».
type UpdateProductReq struct {
	ID                int64
	ActorID           int64
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	StockQuantity     *int
	LowStockThreshold *int
	IsActive          *bool
	Variants          domain.Variants
}

type DeleteProductRes struct {
	Deactivated bool // true: товар есть в заказах и только снят с продажи
}

type ImportProductsReq struct {
	Reader   io.Reader
	VendorID int64
}

type ImportProductsRes struct {
	Success int      `json:"success"`
	Errors  []string `json:"errors"`
}

// AUTH

type RegisterReq struct {
	Name     string
	Email    string
	Password string
}

type LoginReq struct {
	Email    string
	Password string
}

type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

type TokenClaims struct {
	UserID    int64
	Role      domain.Role
	ExpiresAt time.Time
}

type AuthRes struct {
	User  *domain.User
	Token *Token
}

// INVOICES

type InvoiceRes struct {
	Key         string
	FileName    string
	ContentType string
	Data        []byte
}

// EVENTS

// OrderStatusChangedEvent: уведомление о смене статуса заказа.
type OrderStatusChangedEvent struct {
	OrderID        int64
	OrderNumber    string
	UserID         int64
	PreviousStatus domain.OrderStatus
	NewStatus      domain.OrderStatus
	OccurredAt     time.Time
}

func NewOrderStatusChangedEvent(order *domain.Order, previous domain.OrderStatus, at time.Time) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		PreviousStatus: previous,
		NewStatus:      order.Status,
		OccurredAt:     at,
	}
}

// LowStockEvent: уведомление о низком остатке товара.
type LowStockEvent struct {
	ProductID  int64
	SKU        string
	Name       string
	Stock      int
	Threshold  int
	VendorID   int64
	OccurredAt time.Time
}

func NewLowStockEvent(product *domain.Product, at time.Time) *LowStockEvent {
	return &LowStockEvent{
		ProductID:  product.ID,
		SKU:        product.SKU,
		Name:       product.Name,
		Stock:      product.StockQuantity,
		Threshold:  product.LowStockThreshold,
		VendorID:   product.VendorID,
		OccurredAt: at,
	}
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	OrderStatusChanged OutboxEventType = "order.status_changed"
	LowStockAlert      OutboxEventType = "inventory.low_stock"
)

// OutboxEvent: запись transactional outbox, доставляемая в Kafka фоновым воркером.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	AggregateID int64 // ключ партиционирования: id заказа или товара
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, aggregateID int64, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   createdAt,
	}
}

// RATE LIMIT

// RateLimitResult: состояние счётчика субъекта после очередного запроса.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter возвращает, через сколько секунд откроется новое окно (минимум 1).
func (r *RateLimitResult) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		return 1
	}

	return secs
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	Key       string
	EventID   string
	EventType OutboxEventType
	Payload   []byte
}

func NewWriteRawMessageReq(key, eventID string, eventType OutboxEventType, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:       key,
		EventID:   eventID,
		EventType: eventType,
		Payload:   payload,
	}
}

// InboundMessage: событие, прочитанное из Kafka процессом уведомлений.
type InboundMessage struct {
	Key       string
	EventID   string
	EventType OutboxEventType
	Payload   []byte
}
