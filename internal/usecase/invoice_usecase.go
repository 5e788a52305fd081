package usecase

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

const invoiceContentType = "text/html; charset=utf-8"

// InvoiceUseCase формирует счёт по заказу и сохраняет его в объектное хранилище.
type InvoiceUseCase struct {
	orderRepo   OrderRepository
	userRepo    UserRepository
	invoiceRepo InvoiceRepository
	renderer    InvoiceRenderer
	logger      logger.Logger
}

func NewInvoiceUC(
	orderRepo OrderRepository,
	userRepo UserRepository,
	invoiceRepo InvoiceRepository,
	renderer InvoiceRenderer,
	logger logger.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		invoiceRepo: invoiceRepo,
		renderer:    renderer,
		logger:      logger,
	}
}

func (i *InvoiceUseCase) GenerateInvoice(ctx context.Context, orderID int64) (*InvoiceRes, error) {
	const op = "InvoiceUseCase.GenerateInvoice"

	order, err := i.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	customer, err := i.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	data, err := i.renderer.Render(order, customer)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	fileName := fmt.Sprintf("invoice-%s.html", order.OrderNumber)
	key, err := i.invoiceRepo.Upload(ctx, "invoices/"+fileName, invoiceContentType, data)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	i.logger.Debugf("Invoice for order %s stored at %s", order.OrderNumber, key)

	return &InvoiceRes{
		Key:         key,
		FileName:    fileName,
		ContentType: invoiceContentType,
		Data:        data,
	}, nil
}
