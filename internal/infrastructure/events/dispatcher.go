package events

import (
	"context"

	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/google/uuid"
)

// OutboxDispatcher реализует usecase.NotificationDispatcher через transactional outbox:
// событие пишется в той же транзакции, что и изменение, а доставкой занимается OutboxWorker.
type OutboxDispatcher struct {
	repo usecase.OutboxRepository
}

func NewOutboxDispatcher(repo usecase.OutboxRepository) *OutboxDispatcher {
	return &OutboxDispatcher{repo: repo}
}

func (d *OutboxDispatcher) DispatchOrderStatusChanged(ctx context.Context, event *usecase.OrderStatusChangedEvent) error {
	const op = "OutboxDispatcher.DispatchOrderStatusChanged"

	payload, err := EncodeOrderStatusChanged(event)
	if err != nil {
		return e.Wrap(op, err)
	}

	return d.enqueue(ctx, usecase.NewOutboxEvent(uuid.NewString(), usecase.OrderStatusChanged, event.OrderID, payload, event.OccurredAt), op)
}

func (d *OutboxDispatcher) DispatchLowStock(ctx context.Context, event *usecase.LowStockEvent) error {
	const op = "OutboxDispatcher.DispatchLowStock"

	payload, err := EncodeLowStock(event)
	if err != nil {
		return e.Wrap(op, err)
	}

	return d.enqueue(ctx, usecase.NewOutboxEvent(uuid.NewString(), usecase.LowStockAlert, event.ProductID, payload, event.OccurredAt), op)
}

func (d *OutboxDispatcher) enqueue(ctx context.Context, event *usecase.OutboxEvent, op string) error {
	if _, err := d.repo.Create(ctx, event); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
