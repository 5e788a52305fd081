package usecase

import (
	"context"

	"github.com/DRSN-tech/order-backend/internal/domain"
)

// StockLedger: единственная точка изменения остатков товаров.
type StockLedger interface {
	AdjustStock(ctx context.Context, req *AdjustStockReq) (*domain.InventoryLog, error)
	ReserveStock(ctx context.Context, productID int64, quantity int) (*domain.InventoryLog, error)
	ReleaseStock(ctx context.Context, productID int64, quantity int) (*domain.InventoryLog, error)
}

type InventoryUC interface {
	StockLedger
	CheckLowStock(ctx context.Context) ([]domain.Product, error)
	AlertLowStock(ctx context.Context) (int, error)
	ProductHistory(ctx context.Context, productID int64) ([]domain.InventoryLog, error)
}

type OrderUC interface {
	CreateOrder(ctx context.Context, req *CreateOrderReq) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) (*OrdersPage, error)
	IsVendorOrder(ctx context.Context, orderID int64, vendorID int64) (bool, error)
}

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) (*ProductsPage, error)
	DeleteProduct(ctx context.Context, id int64) (*DeleteProductRes, error)
	ImportProducts(ctx context.Context, req *ImportProductsReq) (*ImportProductsRes, error)
}

type AuthUC interface {
	Register(ctx context.Context, req *RegisterReq) (*AuthRes, error)
	Login(ctx context.Context, req *LoginReq) (*AuthRes, error)
	Refresh(ctx context.Context, token string) (*AuthRes, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type InvoiceUC interface {
	GenerateInvoice(ctx context.Context, orderID int64) (*InvoiceRes, error)
}
