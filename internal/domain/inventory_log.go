package domain

import "time"

// AdjustmentType: направление изменения остатка.
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "increase"
	AdjustmentDecrease AdjustmentType = "decrease"
)

// Причины изменения остатка, которые пишет сам сервис.
const (
	ReasonOrderReservation  = "order reservation"
	ReasonOrderCancellation = "order cancellation"
	ReasonInitialStock      = "initial stock"
	ReasonManualAdjustment  = "manual adjustment"
)

// InventoryLog: неизменяемая запись журнала об одном изменении остатка товара.
type InventoryLog struct {
	ID            int64
	ProductID     int64
	Type          AdjustmentType
	Quantity      int // модуль изменения, всегда > 0
	PreviousStock int
	NewStock      int
	Reason        string
	UserID        *int64
	CreatedAt     time.Time
}

// NewInventoryLog строит запись по исходному остатку и знаковому изменению delta.
func NewInventoryLog(productID int64, previousStock, delta int, reason string, userID *int64) *InventoryLog {
	typ, qty := AdjustmentIncrease, delta
	if delta <= 0 {
		typ, qty = AdjustmentDecrease, -delta
	}

	return &InventoryLog{
		ProductID:     productID,
		Type:          typ,
		Quantity:      qty,
		PreviousStock: previousStock,
		NewStock:      previousStock + delta,
		Reason:        reason,
		UserID:        userID,
	}
}

// Delta возвращает знаковое изменение остатка.
func (l *InventoryLog) Delta() int {
	if l.Type == AdjustmentDecrease {
		return -l.Quantity
	}

	return l.Quantity
}
