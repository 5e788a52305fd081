package http

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// Денежные суммы отдаются строкой с двумя знаками: "10.00".
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// REQUESTS

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createProductRequest: price принимает и число, и строку ("10.50").
type createProductRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	SKU               string          `json:"sku"`
	Price             json.Number     `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold *int            `json:"low_stock_threshold"`
	Variants          domain.Variants `json:"variants"`
	VendorID          *int64          `json:"vendor_id"` // учитывается только для администратора
}

type updateProductRequest struct {
	Name              *string         `json:"name"`
	Description       *string         `json:"description"`
	Price             *json.Number    `json:"price"`
	StockQuantity     *int            `json:"stock_quantity"`
	LowStockThreshold *int            `json:"low_stock_threshold"`
	IsActive          *bool           `json:"is_active"`
	Variants          domain.Variants `json:"variants"`
}

type adjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

type orderLineRequest struct {
	ProductID int64                   `json:"product_id"`
	Quantity  int                     `json:"quantity"`
	Variant   domain.VariantSelection `json:"variant"`
}

type createOrderRequest struct {
	Items           []orderLineRequest `json:"items"`
	ShippingAddress domain.Address     `json:"shipping_address"`
	BillingAddress  *domain.Address    `json:"billing_address"` // по умолчанию совпадает с адресом доставки
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// RESPONSES

type pageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
}

func newPageMeta(total, page, perPage int) pageMeta {
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}

	return pageMeta{Total: total, Page: page, PerPage: perPage, LastPage: lastPage}
}

type listResponse[T any] struct {
	Data []T      `json:"data"`
	Meta pageMeta `json:"meta"`
}

type userResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type authResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

func toAuthResponse(res *usecase.AuthRes) authResponse {
	return authResponse{
		User:        toUserResponse(res.User),
		AccessToken: res.Token.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.Token.ExpiresAt,
	}
}

type productResponse struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	SKU               string          `json:"sku"`
	Price             string          `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	IsActive          bool            `json:"is_active"`
	VendorID          int64           `json:"vendor_id"`
	Variants          domain.Variants `json:"variants,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		SKU:               p.SKU,
		Price:             money(p.Price),
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
		IsActive:          p.IsActive,
		VendorID:          p.VendorID,
		Variants:          p.Variants,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	res := make([]productResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}

	return res
}

type inventoryLogResponse struct {
	ID            int64                 `json:"id"`
	ProductID     int64                 `json:"product_id"`
	Type          domain.AdjustmentType `json:"type"`
	Quantity      int                   `json:"quantity"`
	PreviousStock int                   `json:"previous_stock"`
	NewStock      int                   `json:"new_stock"`
	Reason        string                `json:"reason"`
	UserID        *int64                `json:"user_id"`
	CreatedAt     time.Time             `json:"created_at"`
}

func toInventoryLogResponse(l *domain.InventoryLog) inventoryLogResponse {
	return inventoryLogResponse{
		ID:            l.ID,
		ProductID:     l.ProductID,
		Type:          l.Type,
		Quantity:      l.Quantity,
		PreviousStock: l.PreviousStock,
		NewStock:      l.NewStock,
		Reason:        l.Reason,
		UserID:        l.UserID,
		CreatedAt:     l.CreatedAt,
	}
}

func toInventoryLogResponses(logs []domain.InventoryLog) []inventoryLogResponse {
	res := make([]inventoryLogResponse, 0, len(logs))
	for i := range logs {
		res = append(res, toInventoryLogResponse(&logs[i]))
	}

	return res
}

type orderItemResponse struct {
	ID         int64                   `json:"id"`
	ProductID  int64                   `json:"product_id"`
	Quantity   int                     `json:"quantity"`
	UnitPrice  string                  `json:"unit_price"`
	TotalPrice string                  `json:"total_price"`
	Variant    domain.VariantSelection `json:"variant,omitempty"`
	Product    *productResponse        `json:"product,omitempty"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          int64               `json:"user_id"`
	TotalAmount     string              `json:"total_amount"`
	Status          domain.OrderStatus  `json:"status"`
	ShippingAddress domain.Address      `json:"shipping_address"`
	BillingAddress  domain.Address      `json:"billing_address"`
	ShippedAt       *time.Time          `json:"shipped_at"`
	DeliveredAt     *time.Time          `json:"delivered_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       *time.Time          `json:"updated_at,omitempty"`
	Items           []orderItemResponse `json:"items"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		item := orderItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  money(it.UnitPrice),
			TotalPrice: money(it.TotalPrice),
			Variant:    it.Variant,
		}
		if it.Product != nil {
			p := toProductResponse(it.Product)
			item.Product = &p
		}
		items = append(items, item)
	}

	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		TotalAmount:     money(o.TotalAmount),
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	res := make([]orderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}

	return res
}
