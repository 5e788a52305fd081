package pgdb

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const orderColumns = `id, order_number, user_id, total_amount, shipping_address, billing_address,
	status, shipped_at, delivered_at, created_at, updated_at`

// OrderRepo реализует репозиторий заказов и их позиций поверх PostgreSQL.
type OrderRepo struct {
	pool        *pgxpool.Pool
	conv        converter.OrderConverter
	productConv converter.ProductConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter, productConv converter.ProductConverter) *OrderRepo {
	return &OrderRepo{
		pool:        pool,
		conv:        conv,
		productConv: productConv,
	}
}

func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(order)
	query := `
		INSERT INTO orders (order_number, user_id, total_amount, shipping_address, billing_address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + orderColumns

	created, err := scanOrder(tx.QueryRow(ctx, query,
		model.OrderNumber,
		model.UserID,
		model.TotalAmount,
		model.ShippingAddress,
		model.BillingAddress,
		model.Status,
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(created), nil
}

func (o *OrderRepo) CreateItem(ctx context.Context, item *domain.OrderItem) (*domain.OrderItem, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ItemToModel(item)
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, variant)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	if err := tx.QueryRow(ctx, query,
		model.OrderID,
		model.ProductID,
		model.Quantity,
		model.UnitPrice,
		model.TotalPrice,
		model.Variant,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ItemToEntity(model), nil
}

// GetByID возвращает заказ с позициями и карточками товаров.
func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	db := tr.Executor(ctx, o.pool)

	model, err := scanOrder(db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrOrderNotFound))
	}

	order := o.conv.ToEntity(model)
	items, err := o.loadItems(ctx, db, []int64{id}, true)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	order.Items = items[id]

	return order, nil
}

// GetForUpdate блокирует строку заказа до конца транзакции и загружает позиции без товаров.
func (o *OrderRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrOrderNotFound))
	}

	order := o.conv.ToEntity(model)
	items, err := o.loadItems(ctx, tx, []int64{id}, false)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	order.Items = items[id]

	return order, nil
}

// UpdateStatus сохраняет статус и отметки времени доставки.
func (o *OrderRepo) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $2, shipped_at = $3, delivered_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tr.Executor(ctx, o.pool).Exec(ctx, query, order.ID, string(order.Status), order.ShippedAt, order.DeliveredAt)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
	}

	return nil
}

// List возвращает страницу заказов (новые первыми) с позициями и товарами.
func (o *OrderRepo) List(ctx context.Context, filter usecase.OrderFilter) ([]domain.Order, int, error) {
	var where whereBuilder
	if filter.UserID != nil {
		where.add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		where.add("status = $%d", string(*filter.Status))
	}

	db := tr.Executor(ctx, o.pool)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where.String(), where.next(), where.next()+1)
	args := append(where.args, filter.PerPage, offset(filter.Page, filter.PerPage))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	var (
		orders []domain.Order
		ids    []int64
	)
	for rows.Next() {
		model, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
		orders = append(orders, *o.conv.ToEntity(model))
		ids = append(ids, model.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(ids) == 0 {
		return []domain.Order{}, total, nil
	}

	items, err := o.loadItems(ctx, db, ids, true)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, total, nil
}

// HasVendorProduct сообщает, есть ли в заказе товар продавца.
func (o *OrderRepo) HasVendorProduct(ctx context.Context, orderID int64, vendorID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = $1 AND p.vendor_id = $2
		)
	`

	var exists bool
	if err := tr.Executor(ctx, o.pool).QueryRow(ctx, query, orderID, vendorID).Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

// loadItems загружает позиции заказов, сгруппированные по id заказа.
func (o *OrderRepo) loadItems(ctx context.Context, db querier, orderIDs []int64, withProducts bool) (map[int64][]domain.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.total_price, oi.variant, oi.created_at,
			p.id, p.vendor_id, p.name, p.description, p.sku, p.price, p.stock_quantity,
			p.low_stock_threshold, p.is_active, p.variants, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`

	rows, err := db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item    converter.OrderItemModel
			product converter.ProductModel
		)
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.Variant, &item.CreatedAt,
			&product.ID, &product.VendorID, &product.Name, &product.Description, &product.SKU, &product.Price, &product.StockQuantity,
			&product.LowStockThreshold, &product.IsActive, &product.Variants, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, err
		}

		entity := o.conv.ItemToEntity(&item)
		if withProducts {
			entity.Product = o.productConv.ToEntity(&product)
		}
		result[item.OrderID] = append(result[item.OrderID], *entity)
	}

	return result, rows.Err()
}

func scanOrder(row pgx.Row) (*converter.OrderModel, error) {
	var model converter.OrderModel
	err := row.Scan(
		&model.ID,
		&model.OrderNumber,
		&model.UserID,
		&model.TotalAmount,
		&model.ShippingAddress,
		&model.BillingAddress,
		&model.Status,
		&model.ShippedAt,
		&model.DeliveredAt,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
