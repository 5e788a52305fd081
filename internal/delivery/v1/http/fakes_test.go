package http

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/shopspring/decimal"
)

var (
	admin    = &domain.User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	vendor   = &domain.User{ID: 2, Name: "Vendor", Email: "vendor@example.com", Role: domain.RoleVendor}
	other    = &domain.User{ID: 3, Name: "Other vendor", Email: "other@example.com", Role: domain.RoleVendor}
	customer = &domain.User{ID: 4, Name: "Customer", Email: "customer@example.com", Role: domain.RoleCustomer}
	stranger = &domain.User{ID: 5, Name: "Stranger", Email: "stranger@example.com", Role: domain.RoleCustomer}
)

// fakeAuthUC принимает токен вида "token-<email>".
type fakeAuthUC struct {
	users map[string]*domain.User
}

func newFakeAuthUC(users ...*domain.User) *fakeAuthUC {
	f := &fakeAuthUC{users: make(map[string]*domain.User)}
	for _, u := range users {
		f.users["token-"+u.Email] = u
	}
	return f
}

func tokenFor(u *domain.User) string {
	return "token-" + u.Email
}

func (f *fakeAuthUC) Register(_ context.Context, req *usecase.RegisterReq) (*usecase.AuthRes, error) {
	if req.Email == customer.Email {
		return nil, e.ErrEmailTaken
	}
	u := &domain.User{ID: 10, Name: req.Name, Email: req.Email, Role: domain.RoleCustomer}
	return &usecase.AuthRes{User: u, Token: &usecase.Token{AccessToken: tokenFor(u), ExpiresAt: time.Now().Add(time.Hour)}}, nil
}

func (f *fakeAuthUC) Login(_ context.Context, req *usecase.LoginReq) (*usecase.AuthRes, error) {
	for token, u := range f.users {
		if u.Email == req.Email && req.Password == "password123" {
			return &usecase.AuthRes{User: u, Token: &usecase.Token{AccessToken: token, ExpiresAt: time.Now().Add(time.Hour)}}, nil
		}
	}
	return nil, e.ErrInvalidCredentials
}

func (f *fakeAuthUC) Refresh(ctx context.Context, token string) (*usecase.AuthRes, error) {
	u, err := f.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &usecase.AuthRes{User: u, Token: &usecase.Token{AccessToken: token, ExpiresAt: time.Now().Add(time.Hour)}}, nil
}

func (f *fakeAuthUC) Authenticate(_ context.Context, token string) (*domain.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, e.ErrUnauthorized
	}
	return u, nil
}

// fakeLimiter пропускает limit запросов на субъект, после чего отказывает.
type fakeLimiter struct {
	mu    sync.Mutex
	hits  map[string]int
	err   error
	reset time.Time
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{hits: make(map[string]int), reset: time.Now().Add(30 * time.Second)}
}

func (f *fakeLimiter) Hit(_ context.Context, subject string, limit int, _ time.Duration) (*usecase.RateLimitResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[subject]++
	count := f.hits[subject]

	return &usecase.RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   f.reset,
	}, nil
}

type fakeProductUC struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	created  *usecase.CreateProductReq
	updated  *usecase.UpdateProductReq
	filter   usecase.ProductFilter
	imported *usecase.ImportProductsReq
	deleted  []int64
}

func newFakeProductUC(products ...*domain.Product) *fakeProductUC {
	f := &fakeProductUC{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductUC) CreateProduct(_ context.Context, req *usecase.CreateProductReq) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = req
	p := &domain.Product{
		ID:            100,
		Name:          req.Name,
		SKU:           req.SKU,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		IsActive:      true,
		VendorID:      req.VendorID,
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductUC) UpdateProduct(_ context.Context, req *usecase.UpdateProductReq) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = req
	p, ok := f.products[req.ID]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	return p, nil
}

func (f *fakeProductUC) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductUC) ListProducts(_ context.Context, filter usecase.ProductFilter) (*usecase.ProductsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	var res []domain.Product
	for _, p := range f.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		res = append(res, *p)
	}
	return &usecase.ProductsPage{Products: res, Total: len(res), Page: 1, PerPage: 15}, nil
}

func (f *fakeProductUC) DeleteProduct(_ context.Context, id int64) (*usecase.DeleteProductRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return &usecase.DeleteProductRes{Deactivated: true}, nil
}

func (f *fakeProductUC) ImportProducts(_ context.Context, req *usecase.ImportProductsReq) (*usecase.ImportProductsRes, error) {
	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imported = req
	if len(data) == 0 {
		return nil, e.ErrInvalidCSV
	}
	return &usecase.ImportProductsRes{Success: 1, Errors: []string{"Row 3: sku is required"}}, nil
}

type fakeInventoryUC struct {
	mu       sync.Mutex
	adjusted *usecase.AdjustStockReq
	lowStock []domain.Product
	alerted  int
	err      error
}

func (f *fakeInventoryUC) AdjustStock(_ context.Context, req *usecase.AdjustStockReq) (*domain.InventoryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.adjusted = req
	return &domain.InventoryLog{
		ID:            1,
		ProductID:     req.ProductID,
		Type:          domain.AdjustmentIncrease,
		Quantity:      req.Delta,
		PreviousStock: 5,
		NewStock:      5 + req.Delta,
		Reason:        req.Reason,
		UserID:        req.ActorID,
	}, nil
}

func (f *fakeInventoryUC) ReserveStock(context.Context, int64, int) (*domain.InventoryLog, error) {
	return nil, nil
}

func (f *fakeInventoryUC) ReleaseStock(context.Context, int64, int) (*domain.InventoryLog, error) {
	return nil, nil
}

func (f *fakeInventoryUC) CheckLowStock(context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Product(nil), f.lowStock...), nil
}

func (f *fakeInventoryUC) AlertLowStock(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerted++
	return len(f.lowStock), nil
}

func (f *fakeInventoryUC) ProductHistory(_ context.Context, productID int64) ([]domain.InventoryLog, error) {
	return []domain.InventoryLog{{ID: 1, ProductID: productID, Type: domain.AdjustmentIncrease, Quantity: 5, NewStock: 5, Reason: "initial stock"}}, nil
}

type fakeOrderUC struct {
	mu          sync.Mutex
	orders      map[int64]*domain.Order
	vendorOf    map[int64]int64 // orderID -> vendorID
	filter      usecase.OrderFilter
	created     *usecase.CreateOrderReq
	createErr   error
	statusCalls []string
}

func newFakeOrderUC(orders ...*domain.Order) *fakeOrderUC {
	f := &fakeOrderUC{orders: make(map[int64]*domain.Order), vendorOf: make(map[int64]int64)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrderUC) CreateOrder(_ context.Context, req *usecase.CreateOrderReq) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Order{
		ID:              50,
		OrderNumber:     "ORD-20261016-ABCDEF12",
		UserID:          req.UserID,
		TotalAmount:     decimal.RequireFromString("20"),
		Status:          domain.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}, nil
}

func (f *fakeOrderUC) UpdateStatus(_ context.Context, orderID int64, status string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, status)
	o, ok := f.orders[orderID]
	if !ok {
		return nil, e.ErrOrderNotFound
	}
	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, e.ErrInvalidTransition
	}
	o.Status = next
	return o, nil
}

func (f *fakeOrderUC) CancelOrder(_ context.Context, orderID int64) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, e.ErrOrderNotFound
	}
	if !o.CanBeCancelled() {
		return nil, e.ErrCannotCancel
	}
	o.Status = domain.OrderStatusCancelled
	return o, nil
}

func (f *fakeOrderUC) GetOrder(_ context.Context, orderID int64) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, e.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderUC) ListOrders(_ context.Context, filter usecase.OrderFilter) (*usecase.OrdersPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	var res []domain.Order
	for _, o := range f.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		res = append(res, *o)
	}
	return &usecase.OrdersPage{Orders: res, Total: len(res), Page: 1, PerPage: 15}, nil
}

func (f *fakeOrderUC) IsVendorOrder(_ context.Context, orderID int64, vendorID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vendorOf[orderID] == vendorID, nil
}

type fakeInvoiceUC struct{}

func (fakeInvoiceUC) GenerateInvoice(_ context.Context, orderID int64) (*usecase.InvoiceRes, error) {
	return &usecase.InvoiceRes{
		Key:         "invoices/invoice-ORD-1.html",
		FileName:    "invoice-ORD-1.html",
		ContentType: "text/html; charset=utf-8",
		Data:        []byte("<html>invoice</html>"),
	}, nil
}
