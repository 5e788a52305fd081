package converter

import (
	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
)

// ProductConverter преобразует Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func (ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
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

func (ProductConverter) ToEntity(model *ProductModel) *domain.Product {
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

func (c ProductConverter) ToArrEntity(models []ProductModel) []domain.Product {
	res := make([]domain.Product, 0, len(models))
	for i := range models {
		res = append(res, *c.ToEntity(&models[i]))
	}

	return res
}

// InventoryLogConverter преобразует InventoryLog между domain и моделью PostgreSQL.
type InventoryLogConverter struct{}

func (InventoryLogConverter) ToModel(entity *domain.InventoryLog) *InventoryLogModel {
	return &InventoryLogModel{
		ID:            entity.ID,
		ProductID:     entity.ProductID,
		Type:          string(entity.Type),
		Quantity:      entity.Quantity,
		PreviousStock: entity.PreviousStock,
		NewStock:      entity.NewStock,
		Reason:        entity.Reason,
		UserID:        entity.UserID,
		CreatedAt:     entity.CreatedAt,
	}
}

func (InventoryLogConverter) ToEntity(model *InventoryLogModel) *domain.InventoryLog {
	return &domain.InventoryLog{
		ID:            model.ID,
		ProductID:     model.ProductID,
		Type:          domain.AdjustmentType(model.Type),
		Quantity:      model.Quantity,
		PreviousStock: model.PreviousStock,
		NewStock:      model.NewStock,
		Reason:        model.Reason,
		UserID:        model.UserID,
		CreatedAt:     model.CreatedAt,
	}
}

// OrderConverter преобразует Order и OrderItem между domain и моделями PostgreSQL.
type OrderConverter struct{}

func (OrderConverter) ToModel(entity *domain.Order) *OrderModel {
	return &OrderModel{
		ID:              entity.ID,
		OrderNumber:     entity.OrderNumber,
		UserID:          entity.UserID,
		TotalAmount:     entity.TotalAmount,
		ShippingAddress: entity.ShippingAddress,
		BillingAddress:  entity.BillingAddress,
		Status:          string(entity.Status),
		ShippedAt:       entity.ShippedAt,
		DeliveredAt:     entity.DeliveredAt,
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}
}

func (OrderConverter) ToEntity(model *OrderModel) *domain.Order {
	return &domain.Order{
		ID:              model.ID,
		OrderNumber:     model.OrderNumber,
		UserID:          model.UserID,
		TotalAmount:     model.TotalAmount,
		ShippingAddress: model.ShippingAddress,
		BillingAddress:  model.BillingAddress,
		Status:          domain.OrderStatus(model.Status),
		ShippedAt:       model.ShippedAt,
		DeliveredAt:     model.DeliveredAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func (OrderConverter) ItemToModel(entity *domain.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:         entity.ID,
		OrderID:    entity.OrderID,
		ProductID:  entity.ProductID,
		Quantity:   entity.Quantity,
		UnitPrice:  entity.UnitPrice,
		TotalPrice: entity.TotalPrice,
		Variant:    entity.Variant,
		CreatedAt:  entity.CreatedAt,
	}
}

func (OrderConverter) ItemToEntity(model *OrderItemModel) *domain.OrderItem {
	return &domain.OrderItem{
		ID:         model.ID,
		OrderID:    model.OrderID,
		ProductID:  model.ProductID,
		Quantity:   model.Quantity,
		UnitPrice:  model.UnitPrice,
		TotalPrice: model.TotalPrice,
		Variant:    model.Variant,
		CreatedAt:  model.CreatedAt,
	}
}

// UserConverter преобразует User между domain и моделью PostgreSQL.
type UserConverter struct{}

func (UserConverter) ToModel(entity *domain.User) *UserModel {
	return &UserModel{
		ID:           entity.ID,
		Name:         entity.Name,
		Email:        entity.Email,
		PasswordHash: entity.PasswordHash,
		Role:         string(entity.Role),
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}

func (UserConverter) ToEntity(model *UserModel) *domain.User {
	return &domain.User{
		ID:           model.ID,
		Name:         model.Name,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		Role:         domain.Role(model.Role),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		res = append(res, c.ToEntity(model))
	}

	return res
}
