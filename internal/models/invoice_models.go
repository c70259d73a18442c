package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus defines the type for invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoided  InvoiceStatus = "voided"
)

// IsValidInvoiceStatus checks if the provided status string is a valid InvoiceStatus.
func IsValidInvoiceStatus(status string) bool {
	switch InvoiceStatus(status) {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusVoided:
		return true
	default:
		return false
	}
}

// Invoice is a billing document derived from an order, or from a subset of its
// line items when the order is split across payers. The payer is either a
// registered customer or an ad-hoc name/document pair.
type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	Number        string          `json:"number" db:"number"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	CustomerID    *int64          `json:"customer_id,omitempty" db:"customer_id"`
	PayerName     *string         `json:"payer_name,omitempty" db:"payer_name"`
	PayerDocument *string         `json:"payer_document,omitempty" db:"payer_document"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total" db:"tax_total"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	Tip           decimal.Decimal `json:"tip" db:"tip"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod *string         `json:"payment_method,omitempty" db:"payment_method"`
	Status        InvoiceStatus   `json:"status" db:"status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	VoidReason    *string         `json:"void_reason,omitempty" db:"void_reason"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Items    []InvoiceItem `json:"items,omitempty"`
	Customer *Customer     `json:"customer,omitempty"`
}

// InvoiceItem assigns one order line to one invoice. The unique constraint on
// order_item_id keeps split assignments disjoint at the store level.
type InvoiceItem struct {
	ID          int64      `json:"id" db:"id"`
	InvoiceID   int64      `json:"invoice_id" db:"invoice_id"`
	OrderItemID int64      `json:"order_item_id" db:"order_item_id"`
	OrderItem   *OrderItem `json:"order_item,omitempty"`
}

// InvoiceFilters defines the available filters for querying invoices.
type InvoiceFilters struct {
	OrderID  *int64  `form:"order_id"`
	Status   *string `form:"status"`
	Date     *string `form:"date"` // Expected format YYYY-MM-DD
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
