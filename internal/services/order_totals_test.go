package services

import (
	"testing"

	"resto_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineSubtotal(t *testing.T) {
	assert.True(t, d("25.00").Equal(lineSubtotal(d("12.50"), 2, decimal.Zero)))
	assert.True(t, d("22.00").Equal(lineSubtotal(d("12.50"), 2, d("3.00"))))
	assert.True(t, d("0.00").Equal(lineSubtotal(d("5.00"), 1, d("5.00"))))
	// Rounded to cents.
	assert.True(t, d("3.33").Equal(lineSubtotal(d("1.111"), 3, decimal.Zero)))
}

func TestComputeOrderTotals(t *testing.T) {
	items := []models.OrderItem{
		{Subtotal: d("100.00")},
		{Subtotal: d("45.50")},
	}

	subtotal, tax, total := computeOrderTotals(items)
	assert.True(t, d("145.50").Equal(subtotal), "subtotal = %s", subtotal)
	assert.True(t, d("26.19").Equal(tax), "tax = %s", tax)
	assert.True(t, d("171.69").Equal(total), "total = %s", total)
}

func TestComputeOrderTotalsEmpty(t *testing.T) {
	subtotal, tax, total := computeOrderTotals(nil)
	assert.True(t, subtotal.IsZero())
	assert.True(t, tax.IsZero())
	assert.True(t, total.IsZero())
}

func TestComputeOrderTotalsTaxRounding(t *testing.T) {
	// 10.01 * 0.18 = 1.8018, rounds to 1.80.
	subtotal, tax, total := computeOrderTotals([]models.OrderItem{{Subtotal: d("10.01")}})
	assert.True(t, d("10.01").Equal(subtotal))
	assert.True(t, d("1.80").Equal(tax), "tax = %s", tax)
	assert.True(t, d("11.81").Equal(total))
}
