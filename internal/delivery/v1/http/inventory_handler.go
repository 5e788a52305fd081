package http

import (
	"net/http"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/logger"
)

type InventoryHandler struct {
	inventoryUsecase usecase.InventoryUC
	productUsecase   usecase.ProductUC
	logger           logger.Logger
}

func NewInventoryHandler(inventoryUsecase usecase.InventoryUC, productUsecase usecase.ProductUC, logger logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryUsecase: inventoryUsecase,
		productUsecase:   productUsecase,
		logger:           logger,
	}
}

// adjustStock
//
//	@Summary		Корректировка остатка
//	@Description	delta > 0 приход, delta < 0 списание. Остаток не может стать отрицательным.
//	@Tags			inventory
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"ID товара"
//	@Param			body	body		adjustStockRequest	true	"Изменение"
//	@Success		200		{object}	inventoryLogResponse
//	@Failure		409		{object}	ErrorResponse	"Недостаточно товара"
//	@Router			/products/{id}/stock [post]
func (i *InventoryHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := authorizeProduct(r.Context(), i.productUsecase, user, id); err != nil {
		logError(i.logger, r, err)
		WriteError(w, err)
		return
	}

	var req adjustStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logError(i.logger, r, err)
		WriteError(w, err)
		return
	}

	entry, err := i.inventoryUsecase.AdjustStock(r.Context(), usecase.NewAdjustStockReq(id, req.Delta, req.Reason, &user.ID))
	if err != nil {
		logError(i.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toInventoryLogResponse(entry))
}

// productHistory
//
//	@Summary	Журнал остатков товара
//	@Tags		inventory
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{array}		inventoryLogResponse
//	@Router		/products/{id}/history [get]
func (i *InventoryHandler) productHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := authorizeProduct(r.Context(), i.productUsecase, user, id); err != nil {
		logError(i.logger, r, err)
		WriteError(w, err)
		return
	}

	logs, err := i.inventoryUsecase.ProductHistory(r.Context(), id)
	if err != nil {
		logError(i.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toInventoryLogResponses(logs))
}

// lowStock
//
//	@Summary		Товары с низким остатком
//	@Description	Продавец видит только свои товары.
//	@Tags			inventory
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}	productResponse
//	@Router			/inventory/low-stock [get]
func (i *InventoryHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	products, err := i.inventoryUsecase.CheckLowStock(r.Context())
	if err != nil {
		logError(i.logger, r, err)
		WriteError(w, err)
		return
	}

	if !user.HasRole(domain.RoleAdmin) {
		own := products[:0]
		for _, p := range products {
			if p.VendorID == user.ID {
				own = append(own, p)
			}
		}
		products = own
	}

	WriteSuccess(w, http.StatusOK, toProductResponses(products))
}

// alertLowStock
//
//	@Summary	Разослать уведомления о низком остатке
//	@Tags		inventory
//	@Produce	json
//	@Security	BearerAuth
//	@Success	202	{object}	map[string]int
//	@Router		/inventory/low-stock/alert [post]
func (i *InventoryHandler) alertLowStock(w http.ResponseWriter, r *http.Request) {
	n, err := i.inventoryUsecase.AlertLowStock(r.Context())
	if err != nil {
		logError(i.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusAccepted, map[string]int{"enqueued": n})
}
