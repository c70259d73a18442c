package models

import "time"

// MovementType classifies an inventory movement. The reason/reference fields
// stay free text for audit flexibility; the type is a closed enumeration.
type MovementType string

const (
	MovementTypeReservation MovementType = "reservation"
	MovementTypeRelease     MovementType = "release"
	MovementTypeAdjustment  MovementType = "adjustment"
)

// IsValidMovementType checks if the provided type string is a valid MovementType.
func IsValidMovementType(movementType string) bool {
	switch MovementType(movementType) {
	case MovementTypeReservation, MovementTypeRelease, MovementTypeAdjustment:
		return true
	default:
		return false
	}
}

// InventoryRecord tracks the available quantity for one stocked product.
// Available never goes below zero in any committed state.
type InventoryRecord struct {
	ID                int64     `json:"id" db:"id"`
	ProductID         int64     `json:"product_id" db:"product_id" binding:"required"`
	Available         int       `json:"available" db:"available"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
	Product           *Product  `json:"product,omitempty"`
}

// InventoryMovement is an immutable, append-only audit entry. For a given
// product, QuantityAfter of movement n equals QuantityBefore of movement n+1.
type InventoryMovement struct {
	ID             int64        `json:"id" db:"id"`
	ProductID      int64        `json:"product_id" db:"product_id"`
	MovementType   MovementType `json:"movement_type" db:"movement_type"`
	QuantityDelta  int          `json:"quantity_delta" db:"quantity_delta"`
	QuantityBefore int          `json:"quantity_before" db:"quantity_before"`
	QuantityAfter  int          `json:"quantity_after" db:"quantity_after"`
	Actor          string       `json:"actor" db:"actor"`
	Reference      *string      `json:"reference,omitempty" db:"reference"`
	Reason         *string      `json:"reason,omitempty" db:"reason"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	Product        *Product     `json:"product,omitempty"`
}

// MovementFilters defines the available filters for querying movements.
type MovementFilters struct {
	ProductID    *int64  `form:"product_id"`
	MovementType *string `form:"movement_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}
