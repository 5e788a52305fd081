package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/DRSN-tech/order-backend/pkg/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultPage    = 1
	defaultPerPage = 15
	maxPerPage     = 100
)

// OrderUseCase оформляет заказы и ведёт их по жизненному циклу.
type OrderUseCase struct {
	orderRepo   OrderRepository
	productRepo ProductRepository
	ledger      StockLedger
	dispatcher  NotificationDispatcher
	txManager   TxManager
	cacheRepo   CacheRepository
	logger      logger.Logger
	now         func() time.Time
}

func NewOrderUC(
	orderRepo OrderRepository,
	productRepo ProductRepository,
	ledger StockLedger,
	dispatcher NotificationDispatcher,
	txManager TxManager,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		ledger:      ledger,
		dispatcher:  dispatcher,
		txManager:   txManager,
		cacheRepo:   cacheRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateOrder проверяет корзину, считает сумму по текущим ценам и в одной транзакции
// создаёт заказ, позиции и резервирует остатки. Возвращает развернутый заказ.
func (o *OrderUseCase) CreateOrder(ctx context.Context, req *CreateOrderReq) (*domain.Order, error) {
	const op = "OrderUseCase.CreateOrder"

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", req.UserID),
		attribute.Int("order.lines", len(req.Items)),
	)

	if err := validateCreateOrder(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var orderID int64
	productIDs := uniqueProductIDs(req.Items)

	err := o.txManager.Do(ctx, func(ctx context.Context) error {
		// Проверка и расчёт суммы до любых записей
		products, total, err := o.priceLines(ctx, req.Items, productIDs)
		if err != nil {
			return err
		}

		order, err := o.orderRepo.Create(ctx, domain.NewOrder(req.UserID, total, req.ShippingAddress, req.BillingAddress, o.now()))
		if err != nil {
			return err
		}
		orderID = order.ID

		for _, line := range req.Items {
			item := domain.NewOrderItem(line.ProductID, line.Quantity, products[line.ProductID].Price, line.Variant)
			item.OrderID = order.ID
			if _, err := o.orderRepo.CreateItem(ctx, item); err != nil {
				return err
			}
		}

		// Резервирование в порядке id товара, чтобы параллельные заказы брали блокировки одинаково
		lines := append([]OrderLineReq(nil), req.Items...)
		sort.SliceStable(lines, func(a, b int) bool { return lines[a].ProductID < lines[b].ProductID })

		for _, line := range lines {
			if _, err := o.ledger.ReserveStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.invalidateProducts(ctx, productIDs)

	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.logger.Infof("Order %s created for user %d, total %s", order.OrderNumber, order.UserID, order.TotalAmount.StringFixed(2))

	return order, nil
}

// UpdateStatus переводит заказ в новый статус. Значение cancelled запускает отмену с возвратом остатков.
func (o *OrderUseCase) UpdateStatus(ctx context.Context, orderID int64, status string) (*domain.Order, error) {
	const op = "OrderUseCase.UpdateStatus"

	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, e.Wrap(op, e.ErrInvalidTransition)
	}

	if next == domain.OrderStatusCancelled {
		return o.CancelOrder(ctx, orderID)
	}

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.status", string(next)),
	)

	err := o.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := o.orderRepo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		previous := order.Status
		now := o.now()
		changed, err := order.TransitionTo(next, now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if err := o.orderRepo.UpdateStatus(ctx, order); err != nil {
			return err
		}

		return o.dispatcher.DispatchOrderStatusChanged(ctx, NewOrderStatusChangedEvent(order, previous, now))
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return o.GetOrder(ctx, orderID)
}

// CancelOrder возвращает на склад все позиции заказа и переводит его в cancelled одной транзакцией.
func (o *OrderUseCase) CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	const op = "OrderUseCase.CancelOrder"

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	var productIDs []int64
	err := o.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := o.orderRepo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		previous := order.Status
		if err := order.Cancel(); err != nil {
			return err
		}

		items := append([]domain.OrderItem(nil), order.Items...)
		sort.SliceStable(items, func(a, b int) bool { return items[a].ProductID < items[b].ProductID })

		for _, item := range items {
			if _, err := o.ledger.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			productIDs = append(productIDs, item.ProductID)
		}

		if err := o.orderRepo.UpdateStatus(ctx, order); err != nil {
			return err
		}

		return o.dispatcher.DispatchOrderStatusChanged(ctx, NewOrderStatusChangedEvent(order, previous, o.now()))
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.invalidateProducts(ctx, productIDs)

	return o.GetOrder(ctx, orderID)
}

func (o *OrderUseCase) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	const op = "OrderUseCase.GetOrder"

	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// ListOrders возвращает страницу заказов. Значения пагинации вне допустимого диапазона заменяются значениями по умолчанию.
func (o *OrderUseCase) ListOrders(ctx context.Context, filter OrderFilter) (*OrdersPage, error) {
	const op = "OrderUseCase.ListOrders"

	filter.Page, filter.PerPage = normalizePage(filter.Page, filter.PerPage)

	orders, total, err := o.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &OrdersPage{
		Orders:  orders,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}, nil
}

// IsVendorOrder сообщает, есть ли в заказе товары продавца.
func (o *OrderUseCase) IsVendorOrder(ctx context.Context, orderID int64, vendorID int64) (bool, error) {
	const op = "OrderUseCase.IsVendorOrder"

	ok, err := o.orderRepo.HasVendorProduct(ctx, orderID, vendorID)
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return ok, nil
}

// priceLines загружает товары, проверяет наличие и считает сумму заказа.
// Повторяющиеся строки одного товара проверяются по суммарному количеству.
func (o *OrderUseCase) priceLines(ctx context.Context, lines []OrderLineReq, productIDs []int64) (map[int64]*domain.Product, decimal.Decimal, error) {
	products := make(map[int64]*domain.Product, len(productIDs))
	for _, id := range productIDs {
		product, err := o.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !product.IsActive {
			return nil, decimal.Zero, e.ErrProductNotFound
		}

		requested := requestedQuantity(lines, id)
		if product.StockQuantity < requested {
			return nil, decimal.Zero, e.NewInsufficientStockError(product.ID, product.Name, requested, product.StockQuantity)
		}

		products[id] = product
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(domain.LineTotal(products[line.ProductID].Price, line.Quantity))
	}

	return products, total, nil
}

func (o *OrderUseCase) invalidateProducts(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}

	if err := o.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		o.logger.Warnf("Failed to invalidate cached products %v: %v", ids, err)
	}
}

func validateCreateOrder(req *CreateOrderReq) error {
	if len(req.Items) == 0 {
		return e.ErrEmptyLineItems
	}

	for _, line := range req.Items {
		if line.Quantity < 1 {
			return e.ErrInvalidQuantity
		}
		if line.ProductID <= 0 {
			return e.ErrProductNotFound
		}
	}

	if !req.ShippingAddress.IsComplete() || !req.BillingAddress.IsComplete() {
		return e.ErrAddressRequired
	}

	return nil
}

// uniqueProductIDs возвращает отсортированные id товаров корзины без повторов.
func uniqueProductIDs(lines []OrderLineReq) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

func requestedQuantity(lines []OrderLineReq, productID int64) int {
	var qty int
	for _, line := range lines {
		if line.ProductID == productID {
			qty += line.Quantity
		}
	}

	return qty
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	return page, perPage
}
