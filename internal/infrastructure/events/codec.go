// Package events кодирует доменные события для outbox/Kafka и обрабатывает их на стороне уведомлений.
// Payload: сериализованный google.protobuf.Struct, чтобы потребителям не требовалась общая .proto схема.
package events

import (
	"fmt"
	"time"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func EncodeOrderStatusChanged(event *usecase.OrderStatusChangedEvent) ([]byte, error) {
	return encode(map[string]any{
		"order_id":        event.OrderID,
		"order_number":    event.OrderNumber,
		"user_id":         event.UserID,
		"previous_status": string(event.PreviousStatus),
		"new_status":      string(event.NewStatus),
		"occurred_at":     event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
}

func DecodeOrderStatusChanged(data []byte) (*usecase.OrderStatusChangedEvent, error) {
	s, err := decode(data)
	if err != nil {
		return nil, err
	}

	occurredAt, err := timeField(s, "occurred_at")
	if err != nil {
		return nil, err
	}

	orderID, err := intField(s, "order_id")
	if err != nil {
		return nil, err
	}

	userID, err := intField(s, "user_id")
	if err != nil {
		return nil, err
	}

	return &usecase.OrderStatusChangedEvent{
		OrderID:        orderID,
		OrderNumber:    s.Fields["order_number"].GetStringValue(),
		UserID:         userID,
		PreviousStatus: domain.OrderStatus(s.Fields["previous_status"].GetStringValue()),
		NewStatus:      domain.OrderStatus(s.Fields["new_status"].GetStringValue()),
		OccurredAt:     occurredAt,
	}, nil
}

func EncodeLowStock(event *usecase.LowStockEvent) ([]byte, error) {
	return encode(map[string]any{
		"product_id":  event.ProductID,
		"sku":         event.SKU,
		"name":        event.Name,
		"stock":       event.Stock,
		"threshold":   event.Threshold,
		"vendor_id":   event.VendorID,
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
}

func DecodeLowStock(data []byte) (*usecase.LowStockEvent, error) {
	s, err := decode(data)
	if err != nil {
		return nil, err
	}

	occurredAt, err := timeField(s, "occurred_at")
	if err != nil {
		return nil, err
	}

	productID, err := intField(s, "product_id")
	if err != nil {
		return nil, err
	}

	vendorID, err := intField(s, "vendor_id")
	if err != nil {
		return nil, err
	}

	return &usecase.LowStockEvent{
		ProductID:  productID,
		SKU:        s.Fields["sku"].GetStringValue(),
		Name:       s.Fields["name"].GetStringValue(),
		Stock:      int(s.Fields["stock"].GetNumberValue()),
		Threshold:  int(s.Fields["threshold"].GetNumberValue()),
		VendorID:   vendorID,
		OccurredAt: occurredAt,
	}, nil
}

func encode(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, e.Wrap("events.encode", err)
	}

	return proto.Marshal(s)
}

func decode(data []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrMalformedPayload, err)
	}

	return &s, nil
}

func intField(s *structpb.Struct, key string) (int64, error) {
	v, ok := s.Fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", e.ErrMalformedPayload, key)
	}

	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, fmt.Errorf("%w: %s is not a number", e.ErrMalformedPayload, key)
	}

	return int64(v.GetNumberValue()), nil
}

func timeField(s *structpb.Struct, key string) (time.Time, error) {
	raw := s.Fields[key].GetStringValue()
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", e.ErrMalformedPayload, key, err)
	}

	return t, nil
}
