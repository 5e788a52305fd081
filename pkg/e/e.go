package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 404 Not Found
	ErrNotFound        = fmt.Errorf("not found")
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	// 409 Conflict: нарушение бизнес-правил
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrInvalidTransition = fmt.Errorf("invalid status transition")
	ErrCannotCancel      = fmt.Errorf("order cannot be cancelled")
	ErrSKUTaken          = fmt.Errorf("sku is already taken")
	ErrEmailTaken        = fmt.Errorf("email is already taken")

	// 422 Unprocessable Entity
	ErrValidation          = fmt.Errorf("validation failed")
	ErrEmptyLineItems      = fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrZeroDelta           = fmt.Errorf("%w: stock delta must not be zero", ErrValidation)
	ErrProductNameRequired = fmt.Errorf("%w: product name is required", ErrValidation)
	ErrSKURequired         = fmt.Errorf("%w: sku is required", ErrValidation)
	ErrInvalidPrice        = fmt.Errorf("%w: price must be a non-negative amount with at most 2 decimal places", ErrValidation)
	ErrInvalidStock        = fmt.Errorf("%w: stock quantity must be a non-negative integer", ErrValidation)
	ErrInvalidThreshold    = fmt.Errorf("%w: low stock threshold must be non-negative", ErrValidation)
	ErrAddressRequired     = fmt.Errorf("%w: shipping and billing addresses are required", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: email is invalid", ErrValidation)
	ErrPasswordTooShort    = fmt.Errorf("%w: password must contain at least 8 characters", ErrValidation)
	ErrInvalidCSV          = fmt.Errorf("%w: csv file is malformed", ErrValidation)

	// 400 Bad Request
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrInvalidID        = fmt.Errorf("invalid identifier")

	// 401 / 403
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrForbidden          = fmt.Errorf("forbidden")

	// 429
	ErrTooManyRequests = fmt.Errorf("too many requests")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// События: не подлежат повторной обработке
	ErrUnknownEvent     = fmt.Errorf("unknown event type")
	ErrMalformedPayload = fmt.Errorf("malformed event payload")
)

// InsufficientStockError несёт подробности отказа в резервировании.
// errors.Is(err, ErrInsufficientStock) для него истинно.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (i *InsufficientStockError) Error() string {
	if i.ProductName != "" {
		return fmt.Sprintf("insufficient stock for product: %s (requested %d, available %d)", i.ProductName, i.Requested, i.Available)
	}

	return fmt.Sprintf("insufficient stock for product %d (requested %d, available %d)", i.ProductID, i.Requested, i.Available)
}

func (i *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func NewInsufficientStockError(productID int64, productName string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: productName,
		Requested:   requested,
		Available:   available,
	}
}

// AsInsufficientStock извлекает InsufficientStockError из цепочки ошибок.
func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var target *InsufficientStockError
	if errors.As(err, &target) {
		return target, true
	}

	return nil, false
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
