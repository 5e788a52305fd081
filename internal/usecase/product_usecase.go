package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/DRSN-tech/order-backend/pkg/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// Обязательные колонки файла импорта; description необязательна.
var importColumns = []string{"name", "sku", "price", "stock_quantity"}

// ProductUseCase реализует бизнес-логику каталога товаров.
// Остатки меняются только через StockLedger.
type ProductUseCase struct {
	productRepo ProductRepository
	ledger      StockLedger
	txManager   TxManager
	cacheRepo   CacheRepository
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	ledger StockLedger,
	txManager TxManager,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		ledger:      ledger,
		txManager:   txManager,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// CreateProduct создаёт товар с нулевым остатком и проводит начальный остаток через журнал,
// поэтому история товара всегда начинается с нуля.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("product.sku", req.SKU))

	if err := validateCreateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var created *domain.Product
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.createProduct(ctx, req)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return created, nil
}

// UpdateProduct применяет частичное обновление. Новый остаток проводится через журнал как ручная корректировка.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", req.ID))

	if err := validateUpdateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var updated *domain.Product
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		product, err := p.productRepo.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		applyProductPatch(product, req)

		updated, err = p.productRepo.Update(ctx, product)
		if err != nil {
			return err
		}

		if req.StockQuantity == nil || *req.StockQuantity == product.StockQuantity {
			return nil
		}

		actorID := req.ActorID
		entry, err := p.ledger.AdjustStock(ctx, NewAdjustStockReq(
			product.ID,
			*req.StockQuantity-product.StockQuantity,
			domain.ReasonManualAdjustment,
			&actorID,
		))
		if err != nil {
			return err
		}
		updated.StockQuantity = entry.NewStock

		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.cacheRepo.DeleteProducts(ctx, []int64{req.ID}); err != nil {
		p.logger.Warnf("Failed to delete products: %v", e.Wrap(op, err))
	}

	return updated, nil
}

// GetProduct возвращает товар, сначала из кэша, затем из БД.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	// Поиск товара в кэше
	cached, err := p.cacheRepo.GetProducts(ctx, []int64{id})
	if err != nil {
		p.logger.Warnf("Failed to read products from cache: %v", e.Wrap(op, err))
	} else if product, ok := cached[id]; ok {
		return &product, nil
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление товара в кэш
	toCache := *product
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProducts(bgCtx, []domain.Product{toCache}); err != nil {
			p.logger.Warnf("Failed to cache products in background: %v", e.Wrap(op, err))
		}
	}()

	return product, nil
}

func (p *ProductUseCase) ListProducts(ctx context.Context, filter ProductFilter) (*ProductsPage, error) {
	const op = "ProductUseCase.ListProducts"

	filter.Page, filter.PerPage = normalizePage(filter.Page, filter.PerPage)
	filter.Search = strings.TrimSpace(filter.Search)

	products, total, err := p.productRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &ProductsPage{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PerPage:  filter.PerPage,
	}, nil
}

// DeleteProduct удаляет товар. Товар, на который ссылаются заказы, только снимается с продажи.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) (*DeleteProductRes, error) {
	const op = "ProductUseCase.DeleteProduct"

	res := &DeleteProductRes{}
	err := p.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := p.productRepo.GetForUpdate(ctx, id); err != nil {
			return err
		}

		referenced, err := p.productRepo.IsReferenced(ctx, id)
		if err != nil {
			return err
		}

		if referenced {
			res.Deactivated = true
			return p.productRepo.Deactivate(ctx, id)
		}

		return p.productRepo.Delete(ctx, id)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete products: %v", e.Wrap(op, err))
	}

	return res, nil
}

// ImportProducts создаёт товары из CSV. Некорректные строки пропускаются и попадают в отчёт,
// корректные создаются в одной транзакции.
func (p *ProductUseCase) ImportProducts(ctx context.Context, req *ImportProductsReq) (*ImportProductsRes, error) {
	const op = "ProductUseCase.ImportProducts"

	ctx, span := tracing.Tracer().Start(ctx, op)
	defer span.End()

	reader := csv.NewReader(req.Reader)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrInvalidCSV, err))
	}

	columns, err := importColumnIndex(header)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := &ImportProductsRes{Errors: []string{}}
	err = p.txManager.Do(ctx, func(ctx context.Context) error {
		seen := make(map[string]struct{})

		for row := 1; ; row++ {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", row, parseErr.Err))
					continue
				}
				return err
			}

			productReq, err := importRecord(record, columns, req.VendorID)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", row, err))
				continue
			}

			if _, ok := seen[productReq.SKU]; ok {
				res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", row, e.ErrSKUTaken))
				continue
			}

			if _, err := p.createProduct(ctx, productReq); err != nil {
				if errors.Is(err, e.ErrSKUTaken) || errors.Is(err, e.ErrValidation) {
					res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", row, err))
					continue
				}
				return err
			}

			seen[productReq.SKU] = struct{}{}
			res.Success++
		}
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	span.SetAttributes(
		attribute.Int("import.success", res.Success),
		attribute.Int("import.errors", len(res.Errors)),
	)
	p.logger.Infof("Imported %d products for vendor %d, %d rows rejected", res.Success, req.VendorID, len(res.Errors))

	return res, nil
}

// ParsePrice разбирает денежную сумму: неотрицательное число, не более двух знаков после запятой.
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, e.ErrInvalidPrice
	}

	if err := validatePrice(price); err != nil {
		return decimal.Zero, err
	}

	return price, nil
}

// createProduct должен вызываться внутри транзакции.
func (p *ProductUseCase) createProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	existing, err := p.productRepo.GetBySKU(ctx, req.SKU)
	if err != nil && !errors.Is(err, e.ErrProductNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, e.ErrSKUTaken
	}

	threshold := domain.DefaultLowStockThreshold
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}

	product, err := p.productRepo.Create(ctx, domain.NewProduct(
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Description),
		req.SKU,
		req.Price,
		threshold,
		req.VendorID,
		req.Variants,
	))
	if err != nil {
		return nil, err
	}

	if req.StockQuantity > 0 {
		vendorID := req.VendorID
		entry, err := p.ledger.AdjustStock(ctx, NewAdjustStockReq(product.ID, req.StockQuantity, domain.ReasonInitialStock, &vendorID))
		if err != nil {
			return nil, err
		}
		product.StockQuantity = entry.NewStock
	}

	return product, nil
}

func applyProductPatch(product *domain.Product, req *UpdateProductReq) {
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.Variants != nil {
		product.Variants = req.Variants
	}
}

func validateCreateProduct(req *CreateProductReq) error {
	req.SKU = strings.TrimSpace(req.SKU)

	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}
	if req.SKU == "" {
		return e.ErrSKURequired
	}
	if err := validatePrice(req.Price); err != nil {
		return err
	}
	if req.StockQuantity < 0 {
		return e.ErrInvalidStock
	}
	if req.LowStockThreshold != nil && *req.LowStockThreshold < 0 {
		return e.ErrInvalidThreshold
	}

	return nil
}

func validateUpdateProduct(req *UpdateProductReq) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return e.ErrProductNameRequired
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return err
		}
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return e.ErrInvalidStock
	}
	if req.LowStockThreshold != nil && *req.LowStockThreshold < 0 {
		return e.ErrInvalidThreshold
	}

	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() || !price.Equal(price.Round(2)) {
		return e.ErrInvalidPrice
	}

	return nil
}

// importColumnIndex сопоставляет обязательные колонки с их позициями в заголовке.
func importColumnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	for _, name := range importColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", e.ErrInvalidCSV, name)
		}
	}

	return index, nil
}

func importRecord(record []string, columns map[string]int, vendorID int64) (*CreateProductReq, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	price, err := ParsePrice(field("price"))
	if err != nil {
		return nil, err
	}

	stock, err := strconv.Atoi(field("stock_quantity"))
	if err != nil {
		return nil, e.ErrInvalidStock
	}

	req := &CreateProductReq{
		Name:          field("name"),
		Description:   field("description"),
		SKU:           field("sku"),
		Price:         price,
		StockQuantity: stock,
		VendorID:      vendorID,
	}

	if err := validateCreateProduct(req); err != nil {
		return nil, err
	}

	return req, nil
}
