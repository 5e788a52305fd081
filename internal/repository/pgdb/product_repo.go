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

const productColumns = `id, vendor_id, name, description, sku, price, stock_quantity,
	low_stock_threshold, is_active, variants, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create добавляет товар. Остаток задаётся только через журнал, поэтому вставляется как есть (обычно 0).
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (vendor_id, name, description, sku, price, stock_quantity, low_stock_threshold, is_active, variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + productColumns

	row := tr.Executor(ctx, p.pool).QueryRow(ctx, query,
		model.VendorID,
		model.Name,
		model.Description,
		model.SKU,
		model.Price,
		model.StockQuantity,
		model.LowStockThreshold,
		model.IsActive,
		model.Variants,
	)

	created, err := scanProduct(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrSKUTaken)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(created), nil
}

// Update сохраняет карточку товара. stock_quantity не изменяется.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products
		SET name = $2,
			description = $3,
			price = $4,
			low_stock_threshold = $5,
			is_active = $6,
			variants = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	row := tr.Executor(ctx, p.pool).QueryRow(ctx, query,
		model.ID,
		model.Name,
		model.Description,
		model.Price,
		model.LowStockThreshold,
		model.IsActive,
		model.Variants,
	)

	updated, err := scanProduct(row)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrProductNotFound))
	}

	return p.conv.ToEntity(updated), nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	model, err := scanProduct(tr.Executor(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrProductNotFound))
	}

	return p.conv.ToEntity(model), nil
}

// GetByIDs возвращает найденные товары; отсутствующие id пропускаются.
func (p *ProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`

	rows, err := tr.Executor(ctx, p.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := collectProducts(rows)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

// GetForUpdate читает товар и блокирует строку до конца транзакции.
// Все изменения остатка одного товара выстраиваются в очередь на этой блокировке.
func (p *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	model, err := scanProduct(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrProductNotFound))
	}

	return p.conv.ToEntity(model), nil
}

func (p *ProductRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`

	model, err := scanProduct(tr.Executor(ctx, p.pool).QueryRow(ctx, query, sku))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrProductNotFound))
	}

	return p.conv.ToEntity(model), nil
}

// List возвращает страницу товаров и общее число подходящих под фильтр.
func (p *ProductRepo) List(ctx context.Context, filter usecase.ProductFilter) ([]domain.Product, int, error) {
	var where whereBuilder
	if filter.ActiveOnly {
		where.addRaw("is_active")
	}
	if filter.VendorID != nil {
		where.add("vendor_id = $%d", *filter.VendorID)
	}
	if filter.Search != "" {
		where.add("(name ILIKE $%[1]d OR sku ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+filter.Search+"%")
	}

	db := tr.Executor(ctx, p.pool)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		productColumns, where.String(), where.next(), where.next()+1)
	args := append(where.args, filter.PerPage, offset(filter.Page, filter.PerPage))

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := collectProducts(rows)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), total, nil
}

// UpdateStock записывает остаток. Вызывается только складским журналом под блокировкой строки.
func (p *ProductRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tag, err := tx.Exec(ctx, `UPDATE products SET stock_quantity = $2, updated_at = NOW() WHERE id = $1`, id, stock)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// GetLowStock возвращает активные товары с остатком не выше порога.
func (p *ProductRepo) GetLowStock(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active AND stock_quantity <= low_stock_threshold
		ORDER BY id`

	rows, err := tr.Executor(ctx, p.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := collectProducts(rows)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

// IsReferenced сообщает, есть ли товар хотя бы в одной позиции заказа.
func (p *ProductRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := tr.Executor(ctx, p.pool).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (p *ProductRepo) Deactivate(ctx context.Context, id int64) error {
	tag, err := tr.Executor(ctx, p.pool).
		Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.Executor(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID,
		&model.VendorID,
		&model.Name,
		&model.Description,
		&model.SKU,
		&model.Price,
		&model.StockQuantity,
		&model.LowStockThreshold,
		&model.IsActive,
		&model.Variants,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}

func collectProducts(rows pgx.Rows) ([]converter.ProductModel, error) {
	defer rows.Close()

	result := make([]converter.ProductModel, 0)
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}

		result = append(result, *model)
	}

	return result, rows.Err()
}
