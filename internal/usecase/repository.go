package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
)

// TxManager выполняет fn в транзакции. Вложенные вызовы присоединяются к внешней транзакции.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// Update сохраняет все поля товара, кроме остатка.
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	// GetForUpdate читает товар с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	UpdateStock(ctx context.Context, id int64, stock int) error
	GetLowStock(ctx context.Context) ([]domain.Product, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type InventoryLogRepository interface {
	Append(ctx context.Context, entry *domain.InventoryLog) (*domain.InventoryLog, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryLog, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	CreateItem(ctx context.Context, item *domain.OrderItem) (*domain.OrderItem, error)
	// GetByID возвращает заказ с позициями и данными товаров.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetForUpdate блокирует строку заказа и загружает позиции (без товаров).
	GetForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
	HasVendorProduct(ctx context.Context, orderID int64, vendorID int64) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// ReleaseStale возвращает в pending события, зависшие в processing дольше staleAfter секунд.
	ReleaseStale(ctx context.Context, staleAfterSeconds int) (int64, error)
}

// CacheRepository: кэш карточек товаров. Промах не является ошибкой.
type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type InvoiceRepository interface {
	Upload(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

// RateLimitRepository считает запросы субъекта в окне фиксированной длины.
type RateLimitRepository interface {
	Hit(ctx context.Context, subject string, limit int, window time.Duration) (*RateLimitResult, error)
}
