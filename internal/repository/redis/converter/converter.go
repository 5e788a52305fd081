package converter

import "github.com/DRSN-tech/order-backend/internal/domain"

// ProductConverter преобразует Product между domain и моделью кэша.
type ProductConverter struct{}

func (ProductConverter) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	return &ProductRedisModel{
		ID:                entity.ID,
		VendorID:          entity.VendorID,
		Name:              entity.Name,
		Description:       entity.Description,
		SKU:               entity.SKU,
		Price:             entity.Price,
		StockQuantity:     entity.StockQuantity,
		LowStockThreshold: entity.LowStockThreshold,
		IsActive:          entity.IsActive,
		Variants:          entity.Variants,
		CreatedAt:         entity.CreatedAt,
		UpdatedAt:         entity.UpdatedAt,
	}
}

func (ProductConverter) ToEntity(model *ProductRedisModel) *domain.Product {
	return &domain.Product{
		ID:                model.ID,
		Name:              model.Name,
		Description:       model.Description,
		SKU:               model.SKU,
		Price:             model.Price,
		StockQuantity:     model.StockQuantity,
		LowStockThreshold: model.LowStockThreshold,
		IsActive:          model.IsActive,
		VendorID:          model.VendorID,
		Variants:          model.Variants,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func (c ProductConverter) ToArrRedisModel(entities []domain.Product) []ProductRedisModel {
	res := make([]ProductRedisModel, 0, len(entities))
	for i := range entities {
		res = append(res, *c.ToRedisModel(&entities[i]))
	}

	return res
}
