package http

import (
	"net/http"
	"strings"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Гостям и покупателям показываются только активные товары. Поиск по названию, SKU и описанию.
//	@Tags			products
//	@Produce		json
//	@Param			search		query		string	false	"Строка поиска"
//	@Param			vendor_id	query		int		false	"Продавец"
//	@Param			page		query		int		false	"Страница"
//	@Param			per_page	query		int		false	"Размер страницы (до 100)"
//	@Success		200			{object}	listResponse[productResponse]
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	vendorID, err := parseOptionalInt64(r, "vendor_id")
	if err != nil {
		WriteError(w, err)
		return
	}

	page, perPage := parsePagination(r)
	filter := usecase.ProductFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		VendorID:   vendorID,
		ActiveOnly: true,
		Page:       page,
		PerPage:    perPage,
	}

	// администратор и продавец, смотрящий свой каталог, видят и неактивные товары
	if user, ok := UserFromContext(r.Context()); ok {
		if user.HasRole(domain.RoleAdmin) || (user.HasRole(domain.RoleVendor) && vendorID != nil && *vendorID == user.ID) {
			filter.ActiveOnly = false
		}
	}

	res, err := p.productUsecase.ListProducts(r.Context(), filter)
	if err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, listResponse[productResponse]{
		Data: toProductResponses(res.Products),
		Meta: newPageMeta(res.Total, res.Page, res.PerPage),
	})
}

// getProduct
//
//	@Summary	Карточка товара
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	productResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	if !product.IsActive {
		user, ok := UserFromContext(r.Context())
		if !ok || !canManageProduct(user, product) {
			WriteError(w, e.ErrProductNotFound)
			return
		}
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// createProduct
//
//	@Summary		Создание товара
//	@Description	Начальный остаток записывается в складской журнал как "initial stock".
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		createProductRequest	true	"Товар"
//	@Success		201		{object}	productResponse
//	@Failure		409		{object}	ErrorResponse	"SKU уже занят"
//	@Failure		422		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	price, err := usecase.ParsePrice(req.Price.String())
	if err != nil {
		WriteError(w, err)
		return
	}

	vendorID := user.ID
	if user.HasRole(domain.RoleAdmin) && req.VendorID != nil {
		vendorID = *req.VendorID
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), &usecase.CreateProductReq{
		Name:              req.Name,
		Description:       req.Description,
		SKU:               req.SKU,
		Price:             price,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Variants:          req.Variants,
		VendorID:          vendorID,
	})
	if err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// updateProduct
//
//	@Summary		Изменение товара
//	@Description	Изменение stock_quantity проводится через складской журнал как ручная корректировка.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int						true	"ID товара"
//	@Param			body	body		updateProductRequest	true	"Изменяемые поля"
//	@Success		200		{object}	productResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{id} [patch]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := authorizeProduct(r.Context(), p.productUsecase, user, id); err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	patch := &usecase.UpdateProductReq{
		ID:                id,
		ActorID:           user.ID,
		Name:              req.Name,
		Description:       req.Description,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
		Variants:          req.Variants,
	}
	if req.Price != nil {
		price, err := usecase.ParsePrice(req.Price.String())
		if err != nil {
			WriteError(w, err)
			return
		}
		patch.Price = &price
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), patch)
	if err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// deleteProduct
//
//	@Summary		Удаление товара
//	@Description	Товар, который уже есть в заказах, не удаляется, а снимается с продажи.
//	@Tags			products
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"ID товара"
//	@Success		200	{object}	map[string]bool
//	@Router			/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := authorizeProduct(r.Context(), p.productUsecase, user, id); err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.DeleteProduct(r.Context(), id)
	if err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]bool{
		"deleted":     !res.Deactivated,
		"deactivated": res.Deactivated,
	})
}

// importProducts
//
//	@Summary		Импорт товаров из CSV
//	@Description	Колонки: name, sku, price, stock_quantity, description (необязательно). Ошибочные строки пропускаются.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"CSV файл"
//	@Success		200		{object}	usecase.ImportProductsRes
//	@Failure		422		{object}	ErrorResponse
//	@Router			/products/import [post]
func (p *ProductHandler) importProducts(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 10 << 20
		maxMemory           = 2 << 20
	)

	user, _ := UserFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		WriteError(w, e.Wrap("file", e.ErrStatusBadRequest))
		return
	}
	defer file.Close()

	vendorID := user.ID
	if user.HasRole(domain.RoleAdmin) {
		if override, err := parseOptionalInt64(r, "vendor_id"); err == nil && override != nil {
			vendorID = *override
		}
	}

	res, err := p.productUsecase.ImportProducts(r.Context(), &usecase.ImportProductsReq{
		Reader:   file,
		VendorID: vendorID,
	})
	if err != nil {
		logError(p.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.Wrap("expected multipart/form-data", e.ErrStatusBadRequest))
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStatusBadRequest))
	}

	return nil
}
