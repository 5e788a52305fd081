package usecase

import (
	"context"

	"github.com/DRSN-tech/order-backend/internal/domain"
)

// NotificationDispatcher ставит уведомления в очередь доставки.
// Вызывается внутри транзакции и не ждёт фактической доставки.
type NotificationDispatcher interface {
	DispatchOrderStatusChanged(ctx context.Context, event *OrderStatusChangedEvent) error
	DispatchLowStock(ctx context.Context, event *LowStockEvent) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// MessageHandler обрабатывает входящее событие. Ошибка оставляет сообщение некоммиченным.
type MessageHandler interface {
	Handle(ctx context.Context, msg *InboundMessage) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(user *domain.User) (*Token, error)
	Parse(token string) (*TokenClaims, error)
}

type InvoiceRenderer interface {
	Render(order *domain.Order, customer *domain.User) ([]byte, error)
}
