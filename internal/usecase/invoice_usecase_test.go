package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct{}

func (stubRenderer) Render(order *domain.Order, customer *domain.User) ([]byte, error) {
	return []byte(order.OrderNumber + " " + customer.Name), nil
}

type memInvoiceRepo struct {
	objects map[string][]byte
}

func (m *memInvoiceRepo) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	m.objects[key] = data
	return key, nil
}

func TestGenerateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userRepo := &fakeUserRepo{s: f.store}
	customer, err := userRepo.Create(ctx, domain.NewUser("Jane", "jane@example.com", "x", domain.RoleCustomer))
	require.NoError(t, err)
	p := f.store.seedProduct("p", "1.00", 10)

	order, err := f.orders.CreateOrder(ctx, orderReq(customer.ID, OrderLineReq{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	storage := &memInvoiceRepo{objects: make(map[string][]byte)}
	uc := NewInvoiceUC(&fakeOrderRepo{s: f.store}, userRepo, storage, stubRenderer{}, logger.Nop())

	res, err := uc.GenerateInvoice(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice-"+order.OrderNumber+".html", res.FileName)
	assert.Equal(t, "invoices/"+res.FileName, res.Key)
	assert.Equal(t, order.OrderNumber+" Jane", string(res.Data))
	assert.Contains(t, storage.objects, res.Key)

	_, err = uc.GenerateInvoice(ctx, 999)
	assert.ErrorIs(t, err, e.ErrOrderNotFound)
}
