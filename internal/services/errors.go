package services

import "errors"

// Error taxonomy surfaced to collaborators. Handlers translate these into
// HTTP responses; services wrap them with entity context via fmt.Errorf("%w: ...").
var (
	ErrValidation             = errors.New("validation error")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidMovement        = errors.New("invalid inventory movement")
	ErrIncompleteSplit        = errors.New("split does not cover every order item")
	ErrDuplicateAssignment    = errors.New("order item assigned to more than one partition")
	ErrConcurrentModification = errors.New("concurrent modification, retry with fresh state")

	ErrTableNotFound           = errors.New("table not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderItemNotFound       = errors.New("order item not found")
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrCatalogItemNotFound     = errors.New("product or combo not found or not available")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrInventoryRecordNotFound = errors.New("inventory record not found")
)
