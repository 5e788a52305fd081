package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

// Notifier доставляет уведомления адресатам: покупателю о смене статуса заказа, продавцу о низком остатке.
// Канал доставки: структурированный лог.
type Notifier struct {
	users  usecase.UserRepository
	logger logger.Logger
}

func NewNotifier(users usecase.UserRepository, logger logger.Logger) *Notifier {
	return &Notifier{
		users:  users,
		logger: logger,
	}
}

func (n *Notifier) Handle(ctx context.Context, msg *usecase.InboundMessage) error {
	switch msg.EventType {
	case usecase.OrderStatusChanged:
		event, err := DecodeOrderStatusChanged(msg.Payload)
		if err != nil {
			return err
		}

		return n.notifyOrderStatusChanged(ctx, event)
	case usecase.LowStockAlert:
		event, err := DecodeLowStock(msg.Payload)
		if err != nil {
			return err
		}

		return n.notifyLowStock(ctx, event)
	default:
		return fmt.Errorf("%w: %q", e.ErrUnknownEvent, msg.EventType)
	}
}

func (n *Notifier) notifyOrderStatusChanged(ctx context.Context, event *usecase.OrderStatusChangedEvent) error {
	customer, ok, err := n.recipient(ctx, event.UserID)
	if err != nil || !ok {
		return err
	}

	n.logger.Infof("Notify %s <%s>: order %s status changed from %s to %s",
		customer.Name, customer.Email, event.OrderNumber, event.PreviousStatus, event.NewStatus)

	return nil
}

func (n *Notifier) notifyLowStock(ctx context.Context, event *usecase.LowStockEvent) error {
	vendor, ok, err := n.recipient(ctx, event.VendorID)
	if err != nil || !ok {
		return err
	}

	n.logger.Infof("Notify %s <%s>: product %s (%s) is low on stock: %d left, threshold %d",
		vendor.Name, vendor.Email, event.Name, event.SKU, event.Stock, event.Threshold)

	return nil
}

// recipient возвращает ok=false, если адресата уже нет: такое событие не повторяется.
func (n *Notifier) recipient(ctx context.Context, userID int64) (*domain.User, bool, error) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			n.logger.Warnf("notification recipient %d not found, skipping", userID)
			return nil, false, nil
		}

		return nil, false, e.Wrap("Notifier.recipient", err)
	}

	return user, true, nil
}
