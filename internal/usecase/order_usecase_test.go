package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndCancelOrder_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.seedProduct("widget", "10.00", 5)

	order, err := f.orders.CreateOrder(ctx, orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("20.00").Equal(order.TotalAmount))
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Regexp(t, `^ORD-20261016-[0-9A-F]{8}$`, order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.RequireFromString("10.00").Equal(order.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("20.00").Equal(order.Items[0].TotalPrice))
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "widget", order.Items[0].Product.Name)
	assert.Equal(t, 3, f.store.stock(p.ID))

	logs := f.store.logsFor(p.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AdjustmentDecrease, logs[0].Type)
	assert.Equal(t, 2, logs[0].Quantity)
	assert.Equal(t, 5, logs[0].PreviousStock)
	assert.Equal(t, 3, logs[0].NewStock)

	cancelled, err := f.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.store.stock(p.ID))

	logs = f.store.logsFor(p.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.AdjustmentIncrease, logs[1].Type)
	assert.Equal(t, 2, logs[1].Quantity)
	assert.Equal(t, 3, logs[1].PreviousStock)
	assert.Equal(t, 5, logs[1].NewStock)

	require.Len(t, f.store.statusEvents, 1)
	assert.Equal(t, domain.OrderStatusPending, f.store.statusEvents[0].PreviousStatus)
	assert.Equal(t, domain.OrderStatusCancelled, f.store.statusEvents[0].NewStatus)
}

func TestCreateOrder_IsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	a := f.store.seedProduct("a", "1.50", 10)
	b := f.store.seedProduct("b", "2.00", 1)

	_, err := f.orders.CreateOrder(context.Background(), orderReq(7,
		OrderLineReq{ProductID: a.ID, Quantity: 2},
		OrderLineReq{ProductID: b.ID, Quantity: 2},
	))
	require.ErrorIs(t, err, e.ErrInsufficientStock)

	stockErr, ok := e.AsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, "b", stockErr.ProductName)

	assert.Equal(t, 0, f.store.orderCount())
	assert.Equal(t, 0, f.store.itemCount())
	assert.Equal(t, 10, f.store.stock(a.ID))
	assert.Equal(t, 1, f.store.stock(b.ID))
	assert.Empty(t, f.store.logsFor(a.ID))
}

func TestCreateOrder_FailureDuringReservationRollsBack(t *testing.T) {
	f := newFixture(t)
	a := f.store.seedProduct("a", "1.00", 10)
	b := f.store.seedProduct("b", "1.00", 10)
	f.store.failAppendFor = b.ID

	_, err := f.orders.CreateOrder(context.Background(), orderReq(7,
		OrderLineReq{ProductID: a.ID, Quantity: 3},
		OrderLineReq{ProductID: b.ID, Quantity: 3},
	))
	require.ErrorIs(t, err, errStorage)

	assert.Equal(t, 0, f.store.orderCount())
	assert.Equal(t, 0, f.store.itemCount())
	assert.Equal(t, 10, f.store.stock(a.ID))
	assert.Equal(t, 10, f.store.stock(b.ID))
	assert.Empty(t, f.store.logsFor(a.ID))
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.store.seedProduct("p", "1.00", 10)
	inactive := f.store.seedProduct("old", "1.00", 10)
	require.NoError(t, (&fakeProductRepo{s: f.store}).Deactivate(context.Background(), inactive.ID))

	tests := []struct {
		name    string
		req     *CreateOrderReq
		wantErr error
	}{
		{"no items", orderReq(7), e.ErrEmptyLineItems},
		{"zero quantity", orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 0}), e.ErrInvalidQuantity},
		{"negative quantity", orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: -1}), e.ErrInvalidQuantity},
		{"unknown product", orderReq(7, OrderLineReq{ProductID: 999, Quantity: 1}), e.ErrProductNotFound},
		{"inactive product", orderReq(7, OrderLineReq{ProductID: inactive.ID, Quantity: 1}), e.ErrProductNotFound},
		{"missing address", NewCreateOrderReq(7, []OrderLineReq{{ProductID: p.ID, Quantity: 1}}, domain.Address{}, testAddress()), e.ErrAddressRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, f.store.orderCount())
	assert.Equal(t, 10, f.store.stock(p.ID))
}

func TestCreateOrder_DuplicateLinesUseSummedQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.store.seedProduct("p", "4.00", 3)

	_, err := f.orders.CreateOrder(context.Background(), orderReq(7,
		OrderLineReq{ProductID: p.ID, Quantity: 2, Variant: domain.VariantSelection{"size": "S"}},
		OrderLineReq{ProductID: p.ID, Quantity: 2, Variant: domain.VariantSelection{"size": "M"}},
	))
	require.ErrorIs(t, err, e.ErrInsufficientStock)
	assert.Equal(t, 3, f.store.stock(p.ID))

	order, err := f.orders.CreateOrder(context.Background(), orderReq(7,
		OrderLineReq{ProductID: p.ID, Quantity: 1, Variant: domain.VariantSelection{"size": "S"}},
		OrderLineReq{ProductID: p.ID, Quantity: 2, Variant: domain.VariantSelection{"size": "M"}},
	))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.00").Equal(order.TotalAmount))
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 0, f.store.stock(p.ID))
	assert.Len(t, f.store.logsFor(p.ID), 2)
}

func TestCreateOrder_LastUnitRace(t *testing.T) {
	f := newFixture(t)
	p := f.store.seedProduct("last", "9.99", 1)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.orders.CreateOrder(context.Background(), orderReq(userID, OrderLineReq{ProductID: p.ID, Quantity: 1}))
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(int64(i + 1))
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, e.ErrInsufficientStock):
			rejected++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, f.store.stock(p.ID))
	assert.Equal(t, 1, f.store.orderCount())
	assert.Len(t, f.store.logsFor(p.ID), 1)
}

func TestCreateOrder_PricesAreSnapshotted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.seedProduct("p", "5.00", 10)

	order, err := f.orders.CreateOrder(ctx, orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("50.00")
	_, err = f.products.UpdateProduct(ctx, &UpdateProductReq{ID: p.ID, Price: &newPrice})
	require.NoError(t, err)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5.00").Equal(reloaded.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("5.00").Equal(reloaded.TotalAmount))
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name        string
		path        []string
		next        string
		wantErr     error
		wantStatus  domain.OrderStatus
		wantShipped bool
		wantDeliv   bool
	}{
		{name: "pending to processing", next: "processing", wantStatus: domain.OrderStatusProcessing},
		{name: "processing to shipped stamps", path: []string{"processing"}, next: "shipped", wantStatus: domain.OrderStatusShipped, wantShipped: true},
		{name: "shipped to delivered stamps", path: []string{"shipped"}, next: "delivered", wantStatus: domain.OrderStatusDelivered, wantShipped: true, wantDeliv: true},
		{name: "skip to delivered", next: "DELIVERED", wantStatus: domain.OrderStatusDelivered, wantDeliv: true},
		{name: "unknown status", next: "lost", wantErr: e.ErrInvalidTransition},
		{name: "backwards", path: []string{"shipped"}, next: "processing", wantErr: e.ErrInvalidTransition},
		{name: "out of delivered", path: []string{"delivered"}, next: "shipped", wantErr: e.ErrInvalidTransition},
		{name: "out of cancelled", path: []string{"cancelled"}, next: "processing", wantErr: e.ErrInvalidTransition},
		{name: "cancel shipped", path: []string{"shipped"}, next: "cancelled", wantErr: e.ErrCannotCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := f.store.seedProduct("p", "1.00", 10)

			order, err := f.orders.CreateOrder(ctx, orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 1}))
			require.NoError(t, err)
			for _, step := range tt.path {
				_, err := f.orders.UpdateStatus(ctx, order.ID, step)
				require.NoError(t, err)
			}
			before, err := f.orders.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			eventsBefore := len(f.store.statusEvents)

			updated, err := f.orders.UpdateStatus(ctx, order.ID, tt.next)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				after, err := f.orders.GetOrder(ctx, order.ID)
				require.NoError(t, err)
				assert.Equal(t, before.Status, after.Status)
				assert.Equal(t, before.ShippedAt, after.ShippedAt)
				assert.Equal(t, before.DeliveredAt, after.DeliveredAt)
				assert.Len(t, f.store.statusEvents, eventsBefore)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, updated.Status)
			assert.Equal(t, tt.wantShipped, updated.ShippedAt != nil)
			assert.Equal(t, tt.wantDeliv, updated.DeliveredAt != nil)

			require.Len(t, f.store.statusEvents, eventsBefore+1)
			event := f.store.statusEvents[len(f.store.statusEvents)-1]
			assert.Equal(t, before.Status, event.PreviousStatus)
			assert.Equal(t, tt.wantStatus, event.NewStatus)
		})
	}
}

func TestUpdateStatus_SameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.seedProduct("p", "1.00", 10)

	order, err := f.orders.CreateOrder(ctx, orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	shipped, err := f.orders.UpdateStatus(ctx, order.ID, "shipped")
	require.NoError(t, err)
	require.NotNil(t, shipped.ShippedAt)

	f.orders.now = func() time.Time { return fixedNow.Add(time.Hour) }
	again, err := f.orders.UpdateStatus(ctx, order.ID, "shipped")
	require.NoError(t, err)

	assert.Equal(t, *shipped.ShippedAt, *again.ShippedAt)
	assert.Len(t, f.store.statusEvents, 1)
}

func TestUpdateStatus_CancelledReleasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.seedProduct("p", "1.00", 10)

	order, err := f.orders.CreateOrder(ctx, orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 4}))
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, order.ID, "processing")
	require.NoError(t, err)

	cancelled, err := f.orders.UpdateStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.store.stock(p.ID))
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.UpdateStatus(context.Background(), 404, "processing")
	assert.ErrorIs(t, err, e.ErrOrderNotFound)
}

func TestCancelOrder_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.seedProduct("p", "1.00", 10)

	_, err := f.orders.CancelOrder(ctx, 404)
	assert.ErrorIs(t, err, e.ErrOrderNotFound)

	order, err := f.orders.CreateOrder(ctx, orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.orders.CancelOrder(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, order.ID)
	assert.ErrorIs(t, err, e.ErrCannotCancel)
	assert.Equal(t, 10, f.store.stock(p.ID))
}

func TestCancelOrder_PartialFailureRollsBackReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.store.seedProduct("a", "1.00", 10)
	b := f.store.seedProduct("b", "1.00", 10)

	order, err := f.orders.CreateOrder(ctx, orderReq(7,
		OrderLineReq{ProductID: a.ID, Quantity: 2},
		OrderLineReq{ProductID: b.ID, Quantity: 3},
	))
	require.NoError(t, err)

	f.store.failAppendFor = b.ID
	_, err = f.orders.CancelOrder(ctx, order.ID)
	require.ErrorIs(t, err, errStorage)

	assert.Equal(t, 8, f.store.stock(a.ID))
	assert.Equal(t, 7, f.store.stock(b.ID))
	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, reloaded.Status)

	f.store.failAppendFor = 0
	f.store.failUpdateStatus = true
	_, err = f.orders.CancelOrder(ctx, order.ID)
	require.ErrorIs(t, err, errStorage)
	assert.Equal(t, 8, f.store.stock(a.ID))
	assert.Equal(t, 7, f.store.stock(b.ID))
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.seedProduct("p", "1.00", 100)

	for _, userID := range []int64{1, 1, 2} {
		_, err := f.orders.CreateOrder(ctx, orderReq(userID, OrderLineReq{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	own := int64(1)
	page, err := f.orders.ListOrders(ctx, OrderFilter{UserID: &own, Page: 0, PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPerPage, page.PerPage)
	for _, o := range page.Orders {
		assert.Equal(t, own, o.UserID)
	}

	pending := domain.OrderStatusPending
	page, err = f.orders.ListOrders(ctx, OrderFilter{Status: &pending, Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Orders, 1)
}

func TestIsVendorOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.store.seedProduct("p", "1.00", 10)

	order, err := f.orders.CreateOrder(ctx, orderReq(7, OrderLineReq{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	ok, err := f.orders.IsVendorOrder(ctx, order.ID, p.VendorID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.orders.IsVendorOrder(ctx, order.ID, p.VendorID+1)
	require.NoError(t, err)
	assert.False(t, ok)
}
