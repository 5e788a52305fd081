package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/DRSN-tech/order-backend/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// InventoryUseCase: складской журнал: атомарно меняет остаток товара и пишет запись аудита.
type InventoryUseCase struct {
	productRepo ProductRepository
	logRepo     InventoryLogRepository
	txManager   TxManager
	cacheRepo   CacheRepository
	dispatcher  NotificationDispatcher
	logger      logger.Logger
	now         func() time.Time
}

func NewInventoryUC(
	productRepo ProductRepository,
	logRepo InventoryLogRepository,
	txManager TxManager,
	cacheRepo CacheRepository,
	dispatcher NotificationDispatcher,
	logger logger.Logger,
) *InventoryUseCase {
	return &InventoryUseCase{
		productRepo: productRepo,
		logRepo:     logRepo,
		txManager:   txManager,
		cacheRepo:   cacheRepo,
		dispatcher:  dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// AdjustStock изменяет остаток на req.Delta. Чтение, проверка, запись остатка и запись журнала
// выполняются в одной транзакции под блокировкой строки товара; при уходе в минус ничего не меняется.
// Если ctx уже несёт транзакцию, изменение становится её частью.
func (i *InventoryUseCase) AdjustStock(ctx context.Context, req *AdjustStockReq) (*domain.InventoryLog, error) {
	const op = "InventoryUseCase.AdjustStock"

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", req.ProductID),
		attribute.Int("stock.delta", req.Delta),
	)

	if req.Delta == 0 {
		return nil, e.Wrap(op, e.ErrZeroDelta)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = domain.ReasonManualAdjustment
	}

	var entry *domain.InventoryLog
	err := i.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		entry, err = i.adjust(ctx, req.ProductID, req.Delta, reason, req.ActorID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	i.invalidateProducts(ctx, req.ProductID)

	return entry, nil
}

// ReserveStock списывает quantity под заказ.
func (i *InventoryUseCase) ReserveStock(ctx context.Context, productID int64, quantity int) (*domain.InventoryLog, error) {
	if quantity < 1 {
		return nil, e.Wrap("InventoryUseCase.ReserveStock", e.ErrInvalidQuantity)
	}

	return i.AdjustStock(ctx, NewAdjustStockReq(productID, -quantity, domain.ReasonOrderReservation, nil))
}

// ReleaseStock возвращает quantity на склад при отмене заказа.
func (i *InventoryUseCase) ReleaseStock(ctx context.Context, productID int64, quantity int) (*domain.InventoryLog, error) {
	if quantity < 1 {
		return nil, e.Wrap("InventoryUseCase.ReleaseStock", e.ErrInvalidQuantity)
	}

	return i.AdjustStock(ctx, NewAdjustStockReq(productID, quantity, domain.ReasonOrderCancellation, nil))
}

// CheckLowStock возвращает активные товары с остатком не выше порога. Только чтение.
func (i *InventoryUseCase) CheckLowStock(ctx context.Context) ([]domain.Product, error) {
	const op = "InventoryUseCase.CheckLowStock"

	products, err := i.productRepo.GetLowStock(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// AlertLowStock ставит в очередь по одному уведомлению на каждый товар с низким остатком.
func (i *InventoryUseCase) AlertLowStock(ctx context.Context) (int, error) {
	const op = "InventoryUseCase.AlertLowStock"

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()

	products, err := i.CheckLowStock(ctx)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	if len(products) == 0 {
		return 0, nil
	}

	err = i.txManager.Do(ctx, func(ctx context.Context) error {
		now := i.now()
		for idx := range products {
			if err := i.dispatcher.DispatchLowStock(ctx, NewLowStockEvent(&products[idx], now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	return len(products), nil
}

// ProductHistory возвращает журнал изменений остатка товара в порядке создания.
func (i *InventoryUseCase) ProductHistory(ctx context.Context, productID int64) ([]domain.InventoryLog, error) {
	const op = "InventoryUseCase.ProductHistory"

	if _, err := i.productRepo.GetByID(ctx, productID); err != nil {
		return nil, e.Wrap(op, err)
	}

	entries, err := i.logRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return entries, nil
}

// adjust должен вызываться внутри транзакции.
func (i *InventoryUseCase) adjust(ctx context.Context, productID int64, delta int, reason string, actorID *int64) (*domain.InventoryLog, error) {
	product, err := i.productRepo.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}

	newStock := product.StockQuantity + delta
	if newStock < 0 {
		return nil, e.NewInsufficientStockError(product.ID, product.Name, -delta, product.StockQuantity)
	}

	if err := i.productRepo.UpdateStock(ctx, productID, newStock); err != nil {
		return nil, err
	}

	return i.logRepo.Append(ctx, domain.NewInventoryLog(productID, product.StockQuantity, delta, reason, actorID))
}

// invalidateProducts удаляет карточки из кэша. Ошибка кэша не влияет на результат операции.
func (i *InventoryUseCase) invalidateProducts(ctx context.Context, ids ...int64) {
	if err := i.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		i.logger.Warnf("Failed to invalidate cached products %v: %v", ids, err)
	}
}
