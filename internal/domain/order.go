package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus: состояние жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// порядок продвижения заказа; cancelled вне шкалы
var statusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// ParseOrderStatus распознаёт значение статуса.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusRank[status]; ok || status == OrderStatusCancelled {
		return status, true
	}

	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order: заказ покупателя вместе с позициями.
type Order struct {
	ID              int64
	OrderNumber     string
	UserID          int64
	TotalAmount     decimal.Decimal
	ShippingAddress Address
	BillingAddress  Address
	Status          OrderStatus
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       *time.Time

	Items []OrderItem
}

func NewOrder(userID int64, total decimal.Decimal, shipping, billing Address, now time.Time) *Order {
	return &Order{
		OrderNumber:     NewOrderNumber(now),
		UserID:          userID,
		TotalAmount:     total,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Status:          OrderStatusPending,
	}
}

// NewOrderNumber формирует читаемый уникальный номер вида ORD-20260102-1A2B3C4D.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// CanBeCancelled: отменить можно только заказ, который ещё не отгружен.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// TransitionTo переводит заказ в next. Разрешено только движение вперёд по шкале
// pending -> processing -> shipped -> delivered (с пропусками); из терминальных состояний выхода нет.
// Переход в тот же статус ничего не меняет и возвращает changed=false.
// Отмена выполняется через Cancel, потому что требует возврата остатков.
func (o *Order) TransitionTo(next OrderStatus, now time.Time) (bool, error) {
	if next == o.Status {
		return false, nil
	}

	if o.Status.IsTerminal() {
		return false, fmt.Errorf("%w: order is %s", e.ErrInvalidTransition, o.Status)
	}

	nextRank, ok := statusRank[next]
	if !ok {
		return false, fmt.Errorf("%w: %q", e.ErrInvalidTransition, next)
	}

	if nextRank < statusRank[o.Status] {
		return false, fmt.Errorf("%w: %s -> %s", e.ErrInvalidTransition, o.Status, next)
	}

	o.Status = next
	switch next {
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	}

	return true, nil
}

// Cancel переводит заказ в cancelled, если это допустимо.
func (o *Order) Cancel() error {
	if !o.CanBeCancelled() {
		return fmt.Errorf("%w: order is %s", e.ErrCannotCancel, o.Status)
	}

	o.Status = OrderStatusCancelled
	return nil
}
