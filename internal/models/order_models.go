package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus defines the type for order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusInPreparation     OrderStatus = "in_preparation"
	OrderStatusReady             OrderStatus = "ready"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusPartiallyInvoiced OrderStatus = "partially_invoiced"
	OrderStatusInvoiced          OrderStatus = "invoiced"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

// OrderType defines how the order is fulfilled.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDelivery OrderType = "delivery"
)

// nextOrderStatus is the strict linear kitchen progression. Invoiced and
// partially_invoiced are only reachable through the invoice engine, cancelled
// through the cancel operation.
var nextOrderStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:       OrderStatusInPreparation,
	OrderStatusInPreparation: OrderStatusReady,
	OrderStatusReady:         OrderStatusDelivered,
}

// IsValidOrderStatus checks if the provided status string is a valid OrderStatus.
func IsValidOrderStatus(status string) bool {
	switch OrderStatus(status) {
	case OrderStatusPending, OrderStatusInPreparation, OrderStatusReady, OrderStatusDelivered,
		OrderStatusPartiallyInvoiced, OrderStatusInvoiced, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsValidOrderType checks if the provided type string is a valid OrderType.
func IsValidOrderType(orderType string) bool {
	switch OrderType(orderType) {
	case OrderTypeDineIn, OrderTypeTakeout, OrderTypeDelivery:
		return true
	default:
		return false
	}
}

// CanAdvanceOrder reports whether AdvanceStatus may move an order from one
// status to the next. Only the linear kitchen progression is allowed here.
func CanAdvanceOrder(from, to OrderStatus) bool {
	next, ok := nextOrderStatus[from]
	return ok && next == to
}

// IsTerminalOrderStatus reports whether an order can no longer be mutated.
func IsTerminalOrderStatus(status OrderStatus) bool {
	return status == OrderStatusInvoiced || status == OrderStatusCancelled
}

// IsOrderEditable reports whether line items may still be added or changed.
func IsOrderEditable(status OrderStatus) bool {
	return status == OrderStatusPending || status == OrderStatusInPreparation
}

// Order represents a customer order and its cached totals. Totals are
// recomputed on every item mutation; Version backs optimistic locking.
type Order struct {
	ID         int64           `json:"id" db:"id"`
	Number     string          `json:"number" db:"number"`
	TableID    *int64          `json:"table_id,omitempty" db:"table_id"`
	CustomerID *int64          `json:"customer_id,omitempty" db:"customer_id"`
	CreatedBy  string          `json:"created_by" db:"created_by"`
	OrderType  OrderType       `json:"order_type" db:"order_type"`
	Status     OrderStatus     `json:"status" db:"status"`
	Notes      *string         `json:"notes,omitempty" db:"notes"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxTotal   decimal.Decimal `json:"tax_total" db:"tax_total"`
	Total      decimal.Decimal `json:"total" db:"total"`
	Version    int64           `json:"version" db:"version"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`

	Items    []OrderItem      `json:"items,omitempty"`
	Table    *RestaurantTable `json:"table,omitempty"`
	Customer *Customer        `json:"customer,omitempty"`
}

// OrderItem is one product or combo line within an order. Exactly one of
// ProductID/ComboID is set. UnitPrice is a snapshot taken when the line was
// added, so later price changes never rewrite historical invoices.
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ProductID *int64          `json:"product_id,omitempty" db:"product_id"`
	ComboID   *int64          `json:"combo_id,omitempty" db:"combo_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Discount  decimal.Decimal `json:"discount" db:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`

	Product *Product `json:"product,omitempty"`
	Combo   *Combo   `json:"combo,omitempty"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	TableID    *int64  `form:"table_id"`
	CustomerID *int64  `form:"customer_id"`
	Status     *string `form:"status"`
	OrderType  *string `form:"order_type"`
	Date       *string `form:"date"` // Expected format YYYY-MM-DD
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
