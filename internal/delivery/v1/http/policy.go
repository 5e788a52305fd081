package http

import (
	"context"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
)

// Правила доступа проверяются здесь, до вызова usecase. Администратору разрешено всё.

func canManageProduct(user *domain.User, product *domain.Product) bool {
	if user.HasRole(domain.RoleAdmin) {
		return true
	}

	return user.HasRole(domain.RoleVendor) && product.VendorID == user.ID
}

func authorizeProduct(ctx context.Context, products usecase.ProductUC, user *domain.User, id int64) error {
	product, err := products.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if !canManageProduct(user, product) {
		return e.ErrForbidden
	}

	return nil
}

// orderPolicy решает доступ к заказу. Продавец получает доступ к заказам, в которых есть его товары.
type orderPolicy struct {
	orders usecase.OrderUC
}

func (p orderPolicy) isVendorOf(ctx context.Context, user *domain.User, order *domain.Order) (bool, error) {
	if !user.HasRole(domain.RoleVendor) {
		return false, nil
	}

	return p.orders.IsVendorOrder(ctx, order.ID, user.ID)
}

func (p orderPolicy) canView(ctx context.Context, user *domain.User, order *domain.Order) error {
	if user.HasRole(domain.RoleAdmin) || order.UserID == user.ID {
		return nil
	}

	return p.requireVendor(ctx, user, order)
}

// canUpdateStatus: покупатель может только отменить свой заказ.
func (p orderPolicy) canUpdateStatus(ctx context.Context, user *domain.User, order *domain.Order, status string) error {
	if user.HasRole(domain.RoleAdmin) {
		return nil
	}

	if order.UserID == user.ID {
		if next, ok := domain.ParseOrderStatus(status); ok && next == domain.OrderStatusCancelled {
			return nil
		}
	}

	return p.requireVendor(ctx, user, order)
}

func (p orderPolicy) canCancel(user *domain.User, order *domain.Order) error {
	if user.HasRole(domain.RoleAdmin) || order.UserID == user.ID {
		return nil
	}

	return e.ErrForbidden
}

func (p orderPolicy) requireVendor(ctx context.Context, user *domain.User, order *domain.Order) error {
	ok, err := p.isVendorOf(ctx, user, order)
	if err != nil {
		return err
	}
	if !ok {
		return e.ErrForbidden
	}

	return nil
}
