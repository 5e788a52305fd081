package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

var (
	errStorage = errors.New("storage unavailable")
	fixedNow   = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
)

// memStore: общее состояние фейковых репозиториев. Откат транзакции восстанавливает снимок.
type memStore struct {
	mu sync.Mutex

	nextID   int64
	products map[int64]domain.Product
	logs     []domain.InventoryLog
	orders   map[int64]domain.Order
	items    []domain.OrderItem
	users    map[int64]domain.User

	statusEvents   []OrderStatusChangedEvent
	lowStockEvents []LowStockEvent

	// failAppendFor: запись журнала для этого товара завершается ошибкой
	failAppendFor int64
	// failUpdateStatus: запись статуса заказа завершается ошибкой
	failUpdateStatus bool
}

type memSnapshot struct {
	nextID         int64
	products       map[int64]domain.Product
	logs           []domain.InventoryLog
	orders         map[int64]domain.Order
	items          []domain.OrderItem
	users          map[int64]domain.User
	statusEvents   []OrderStatusChangedEvent
	lowStockEvents []LowStockEvent
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[int64]domain.Product),
		orders:   make(map[int64]domain.Order),
		users:    make(map[int64]domain.User),
	}
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		nextID:         s.nextID,
		products:       make(map[int64]domain.Product, len(s.products)),
		logs:           append([]domain.InventoryLog(nil), s.logs...),
		orders:         make(map[int64]domain.Order, len(s.orders)),
		items:          append([]domain.OrderItem(nil), s.items...),
		users:          make(map[int64]domain.User, len(s.users)),
		statusEvents:   append([]OrderStatusChangedEvent(nil), s.statusEvents...),
		lowStockEvents: append([]LowStockEvent(nil), s.lowStockEvents...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}

	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = snap.nextID
	s.products = snap.products
	s.logs = snap.logs
	s.orders = snap.orders
	s.items = snap.items
	s.users = snap.users
	s.statusEvents = snap.statusEvents
	s.lowStockEvents = snap.lowStockEvents
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// seedProduct добавляет товар в обход журнала.
func (s *memStore) seedProduct(name string, price string, stock int) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := *domain.NewProduct(name, "", strings.ToUpper(name)+"-SKU", decimal.RequireFromString(price), domain.DefaultLowStockThreshold, 100, nil)
	product.ID = s.id()
	product.StockQuantity = stock
	product.CreatedAt = fixedNow
	s.products[product.ID] = product

	return product
}

func (s *memStore) stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.products[id].StockQuantity
}

func (s *memStore) logsFor(id int64) []domain.InventoryLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []domain.InventoryLog
	for _, l := range s.logs {
		if l.ProductID == id {
			res = append(res, l)
		}
	}
	return res
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.orders)
}

func (s *memStore) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// TRANSACTIONS

type txMarker struct{}

// fakeTxManager выполняет транзакции строго по очереди. Вложенный Do присоединяется к внешнему.
type fakeTxManager struct {
	mu    sync.Mutex
	store *memStore
}

func (f *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.store.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		f.store.restore(snap)
		return err
	}

	return nil
}

// PRODUCTS

type fakeProductRepo struct{ s *memStore }

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.products {
		if p.SKU == product.SKU {
			return nil, e.ErrSKUTaken
		}
	}

	created := *product
	created.ID = r.s.id()
	created.CreatedAt = fixedNow
	r.s.products[created.ID] = created

	return &created, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.products[product.ID]
	if !ok {
		return nil, e.ErrProductNotFound
	}

	updated := *product
	updated.StockQuantity = current.StockQuantity
	r.s.products[product.ID] = updated

	return &updated, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product, ok := r.s.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &product, nil
}

func (r *fakeProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	var res []domain.Product
	for _, id := range ids {
		if p, err := r.GetByID(ctx, id); err == nil {
			res = append(res, *p)
		}
	}
	return res, nil
}

func (r *fakeProductRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.products {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, e.ErrProductNotFound
}

func (r *fakeProductRepo) List(_ context.Context, filter ProductFilter) ([]domain.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(filter.Search)
	var matched []domain.Product
	for _, p := range r.s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.VendorID != nil && p.VendorID != *filter.VendorID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.SKU+" "+p.Description), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(a, b int) bool { return matched[a].ID < matched[b].ID })

	return paginate(matched, filter.Page, filter.PerPage), len(matched), nil
}

func (r *fakeProductRepo) UpdateStock(_ context.Context, id int64, stock int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product, ok := r.s.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	product.StockQuantity = stock
	r.s.products[id] = product

	return nil
}

func (r *fakeProductRepo) GetLowStock(_ context.Context) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var res []domain.Product
	for _, p := range r.s.products {
		if p.IsActive && p.IsLowStock() {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(a, b int) bool { return res[a].ID < res[b].ID })

	return res, nil
}

func (r *fakeProductRepo) IsReferenced(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, item := range r.s.items {
		if item.ProductID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) Deactivate(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product := r.s.products[id]
	product.IsActive = false
	r.s.products[id] = product

	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.products, id)
	return nil
}

// INVENTORY LOG

type fakeLogRepo struct{ s *memStore }

func (r *fakeLogRepo) Append(_ context.Context, entry *domain.InventoryLog) (*domain.InventoryLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.failAppendFor != 0 && r.s.failAppendFor == entry.ProductID {
		return nil, errStorage
	}

	created := *entry
	created.ID = r.s.id()
	created.CreatedAt = fixedNow
	r.s.logs = append(r.s.logs, created)

	return &created, nil
}

func (r *fakeLogRepo) ListByProduct(_ context.Context, productID int64) ([]domain.InventoryLog, error) {
	return r.s.logsFor(productID), nil
}

// ORDERS

type fakeOrderRepo struct{ s *memStore }

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := *order
	created.ID = r.s.id()
	created.CreatedAt = fixedNow
	created.Items = nil
	r.s.orders[created.ID] = created

	return &created, nil
}

func (r *fakeOrderRepo) CreateItem(_ context.Context, item *domain.OrderItem) (*domain.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[item.OrderID]; !ok {
		return nil, e.ErrOrderNotFound
	}

	created := *item
	created.ID = r.s.id()
	created.CreatedAt = fixedNow
	r.s.items = append(r.s.items, created)

	return &created, nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, e.ErrOrderNotFound
	}

	for _, item := range r.s.items {
		if item.OrderID != id {
			continue
		}
		if product, ok := r.s.products[item.ProductID]; ok {
			item.Product = &product
		}
		order.Items = append(order.Items, item)
	}

	return &order, nil
}

func (r *fakeOrderRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range order.Items {
		order.Items[i].Product = nil
	}
	return order, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.failUpdateStatus {
		return errStorage
	}

	stored, ok := r.s.orders[order.ID]
	if !ok {
		return e.ErrOrderNotFound
	}

	now := fixedNow
	stored.Status = order.Status
	stored.ShippedAt = order.ShippedAt
	stored.DeliveredAt = order.DeliveredAt
	stored.UpdatedAt = &now
	r.s.orders[order.ID] = stored

	return nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter OrderFilter) ([]domain.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []domain.Order
	for _, o := range r.s.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(a, b int) bool { return matched[a].ID > matched[b].ID })

	return paginate(matched, filter.Page, filter.PerPage), len(matched), nil
}

func (r *fakeOrderRepo) HasVendorProduct(_ context.Context, orderID int64, vendorID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, item := range r.s.items {
		if item.OrderID == orderID && r.s.products[item.ProductID].VendorID == vendorID {
			return true, nil
		}
	}
	return false, nil
}

// USERS

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return nil, e.ErrEmailTaken
		}
	}

	created := *user
	created.ID = r.s.id()
	created.CreatedAt = fixedNow
	r.s.users[created.ID] = created

	return &created, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, e.ErrUserNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, e.ErrUserNotFound
}

// NOTIFICATIONS

type fakeDispatcher struct{ s *memStore }

func (d *fakeDispatcher) DispatchOrderStatusChanged(_ context.Context, event *OrderStatusChangedEvent) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	d.s.statusEvents = append(d.s.statusEvents, *event)
	return nil
}

func (d *fakeDispatcher) DispatchLowStock(_ context.Context, event *LowStockEvent) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	d.s.lowStockEvents = append(d.s.lowStockEvents, *event)
	return nil
}

// CACHE

type memCache struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	deleted  []int64
}

func newMemCache() *memCache {
	return &memCache{products: make(map[int64]domain.Product)}
}

func (c *memCache) GetProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make(map[int64]domain.Product)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			res[id] = p
		}
	}
	return res, nil
}

func (c *memCache) SetProducts(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		c.products[p.ID] = p
	}
	return nil
}

func (c *memCache) DeleteProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.products, id)
	}
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *memCache) has(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.products[id]
	return ok
}

// AUTH

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return e.ErrInvalidCredentials
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(user *domain.User) (*Token, error) {
	return &Token{AccessToken: fmt.Sprintf("token-%d-%s", user.ID, user.Role), ExpiresAt: fixedNow.Add(time.Hour)}, nil
}

func (fakeTokens) Parse(token string) (*TokenClaims, error) {
	var (
		id   int64
		role string
	)
	if _, err := fmt.Sscanf(token, "token-%d-%s", &id, &role); err != nil {
		return nil, e.ErrUnauthorized
	}
	return &TokenClaims{UserID: id, Role: domain.Role(role), ExpiresAt: fixedNow.Add(time.Hour)}, nil
}

// FIXTURE

type fixture struct {
	store     *memStore
	cache     *memCache
	tx        *fakeTxManager
	inventory *InventoryUseCase
	orders    *OrderUseCase
	products  *ProductUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	cache := newMemCache()
	tx := &fakeTxManager{store: store}
	productRepo := &fakeProductRepo{s: store}
	dispatcher := &fakeDispatcher{s: store}
	log := logger.Nop()

	inventory := NewInventoryUC(productRepo, &fakeLogRepo{s: store}, tx, cache, dispatcher, log)
	inventory.now = func() time.Time { return fixedNow }

	orders := NewOrderUC(&fakeOrderRepo{s: store}, productRepo, inventory, dispatcher, tx, cache, log)
	orders.now = func() time.Time { return fixedNow }

	return &fixture{
		store:     store,
		cache:     cache,
		tx:        tx,
		inventory: inventory,
		orders:    orders,
		products:  NewProductUC(productRepo, inventory, tx, cache, log),
	}
}

func testAddress() domain.Address {
	return domain.Address{Name: "Jane Doe", Line1: "1 Main St", City: "Springfield", Country: "US"}
}

func orderReq(userID int64, lines ...OrderLineReq) *CreateOrderReq {
	return NewCreateOrderReq(userID, lines, testAddress(), testAddress())
}

func paginate[T any](items []T, page, perPage int) []T {
	if page < 1 || perPage < 1 {
		return items
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
