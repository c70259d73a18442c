package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAdvanceOrder(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to in_preparation", OrderStatusPending, OrderStatusInPreparation, true},
		{"in_preparation to ready", OrderStatusInPreparation, OrderStatusReady, true},
		{"ready to delivered", OrderStatusReady, OrderStatusDelivered, true},

		{"no skipping ahead", OrderStatusPending, OrderStatusReady, false},
		{"no going back", OrderStatusReady, OrderStatusInPreparation, false},
		{"delivered is the end of the kitchen line", OrderStatusDelivered, OrderStatusInvoiced, false},
		{"cancel is not an advance", OrderStatusPending, OrderStatusCancelled, false},
		{"invoiced is reserved to the invoice engine", OrderStatusDelivered, OrderStatusPartiallyInvoiced, false},
		{"terminal states advance nowhere", OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanAdvanceOrder(tt.from, tt.to))
		})
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	assert.True(t, IsTerminalOrderStatus(OrderStatusInvoiced))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, IsTerminalOrderStatus(OrderStatusDelivered))
	assert.False(t, IsTerminalOrderStatus(OrderStatusPartiallyInvoiced))
}

func TestIsOrderEditable(t *testing.T) {
	assert.True(t, IsOrderEditable(OrderStatusPending))
	assert.True(t, IsOrderEditable(OrderStatusInPreparation))
	assert.False(t, IsOrderEditable(OrderStatusReady))
	assert.False(t, IsOrderEditable(OrderStatusDelivered))
	assert.False(t, IsOrderEditable(OrderStatusCancelled))
}

func TestIsValidOrderType(t *testing.T) {
	assert.True(t, IsValidOrderType("dine_in"))
	assert.True(t, IsValidOrderType("takeout"))
	assert.True(t, IsValidOrderType("delivery"))
	assert.False(t, IsValidOrderType("drive_through"))
}
