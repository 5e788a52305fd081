package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

type OrderHandler struct {
	orderUsecase   usecase.OrderUC
	invoiceUsecase usecase.InvoiceUC
	policy         orderPolicy
	logger         logger.Logger
}

func NewOrderHandler(orderUsecase usecase.OrderUC, invoiceUsecase usecase.InvoiceUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderUsecase:   orderUsecase,
		invoiceUsecase: invoiceUsecase,
		policy:         orderPolicy{orders: orderUsecase},
		logger:         logger,
	}
}

// createOrder
//
//	@Summary		Оформление заказа
//	@Description	Остатки всех позиций резервируются в одной транзакции. При нехватке товара заказ не создаётся.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		createOrderRequest	true	"Корзина и адреса"
//	@Success		201		{object}	orderResponse
//	@Failure		409		{object}	ErrorResponse	"Недостаточно товара"
//	@Failure		422		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/orders [post]
func (o *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	items := make([]usecase.OrderLineReq, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.OrderLineReq{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		})
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	order, err := o.orderUsecase.CreateOrder(r.Context(), usecase.NewCreateOrderReq(user.ID, items, req.ShippingAddress, billing))
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toOrderResponse(order))
}

// listOrders
//
//	@Summary		Список заказов
//	@Description	Покупатель видит только свои заказы.
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Param			status		query		string	false	"Статус"
//	@Param			page		query		int		false	"Страница"
//	@Param			per_page	query		int		false	"Размер страницы"
//	@Success		200			{object}	listResponse[orderResponse]
//	@Router			/orders [get]
func (o *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	page, perPage := parsePagination(r)
	filter := usecase.OrderFilter{Page: page, PerPage: perPage}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			WriteError(w, e.Wrap("status "+raw, e.ErrStatusBadRequest))
			return
		}
		filter.Status = &status
	}

	if user.HasRole(domain.RoleCustomer) {
		filter.UserID = &user.ID
	}

	res, err := o.orderUsecase.ListOrders(r.Context(), filter)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, listResponse[orderResponse]{
		Data: toOrderResponses(res.Orders),
		Meta: newPageMeta(res.Total, res.Page, res.PerPage),
	})
}

// getOrder
//
//	@Summary	Заказ с позициями
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"ID заказа"
//	@Success	200	{object}	orderResponse
//	@Failure	403	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/orders/{id} [get]
func (o *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	order, err := o.loadOrder(r)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	if err := o.policy.canView(r.Context(), user, order); err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

// updateStatus
//
//	@Summary		Смена статуса заказа
//	@Description	Допустимы только переходы вперёд: pending, processing, shipped, delivered. cancelled возвращает товар на склад.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"ID заказа"
//	@Param			body	body		updateStatusRequest	true	"Новый статус"
//	@Success		200		{object}	orderResponse
//	@Failure		409		{object}	ErrorResponse	"Недопустимый переход"
//	@Router			/orders/{id}/status [patch]
func (o *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	order, err := o.loadOrder(r)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	if err := o.policy.canUpdateStatus(r.Context(), user, order, req.Status); err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	updated, err := o.orderUsecase.UpdateStatus(r.Context(), order.ID, req.Status)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(updated))
}

// cancelOrder
//
//	@Summary	Отмена заказа
//	@Tags		orders
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"ID заказа"
//	@Success	200	{object}	orderResponse
//	@Failure	409	{object}	ErrorResponse	"Заказ уже отправлен"
//	@Router		/orders/{id}/cancel [post]
func (o *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	order, err := o.loadOrder(r)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	if err := o.policy.canCancel(user, order); err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	cancelled, err := o.orderUsecase.CancelOrder(r.Context(), order.ID)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(cancelled))
}

// downloadInvoice
//
//	@Summary	Счёт по заказу
//	@Tags		orders
//	@Produce	html
//	@Security	BearerAuth
//	@Param		id	path		int	true	"ID заказа"
//	@Success	200	{file}		file
//	@Router		/orders/{id}/invoice [get]
func (o *OrderHandler) downloadInvoice(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	order, err := o.loadOrder(r)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	if err := o.policy.canView(r.Context(), user, order); err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	invoice, err := o.invoiceUsecase.GenerateInvoice(r.Context(), order.ID)
	if err != nil {
		logError(o.logger, r, err)
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", invoice.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(invoice.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(invoice.Data)
}

func (o *OrderHandler) loadOrder(r *http.Request) (*domain.Order, error) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		return nil, err
	}

	return o.orderUsecase.GetOrder(r.Context(), id)
}
