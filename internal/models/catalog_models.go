package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable item. Stock is tracked per product when
// TracksStock is set; service items (e.g. corkage) leave it off.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name" binding:"required"`
	SKU         *string         `json:"sku,omitempty" db:"sku"`
	Price       decimal.Decimal `json:"price" db:"price"`
	TracksStock bool            `json:"tracks_stock" db:"tracks_stock"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Combo bundles several products under a single price.
type Combo struct {
	ID         int64            `json:"id" db:"id"`
	Name       string           `json:"name" db:"name" binding:"required"`
	Price      decimal.Decimal  `json:"price" db:"price"`
	IsActive   bool             `json:"is_active" db:"is_active"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
	Components []ComboComponent `json:"components,omitempty"`
}

// ComboComponent is one product inside a combo, with the per-combo quantity.
// Selling one combo consumes Quantity units of each stocked component.
type ComboComponent struct {
	ID        int64    `json:"id" db:"id"`
	ComboID   int64    `json:"combo_id" db:"combo_id"`
	ProductID int64    `json:"product_id" db:"product_id" binding:"required"`
	Quantity  int      `json:"quantity" db:"quantity" binding:"required,gt=0"`
	Product   *Product `json:"product,omitempty"`
}
