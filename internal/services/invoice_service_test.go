package services

import (
	"testing"
	"time"

	"resto_backend/internal/models"
	"resto_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoiceServiceForTest(t *testing.T) (InvoiceService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewInvoiceService(
		repositories.NewInvoiceRepository(db),
		repositories.NewOrderRepository(db),
		repositories.NewTableRepository(db),
		NewSequenceService(repositories.NewSequenceRepository(db)),
		InvoicePolicy{},
		db,
	), mock
}

func invoiceRowsForTest() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "number", "order_id", "customer_id", "payer_name", "payer_document",
		"subtotal", "tax_total", "discount", "tip", "total", "payment_method", "status",
		"paid_at", "void_reason", "notes", "created_at", "updated_at",
	})
}

func addInvoiceRow(rows *sqlmock.Rows, id int64, number string, status models.InvoiceStatus, at time.Time) *sqlmock.Rows {
	return rows.AddRow(id, number, 1, nil, nil, nil,
		"50.00", "9.00", "0.00", "0.00", "59.00", nil, string(status), nil, nil, nil, at, at)
}

func TestValidateSplitPartitions(t *testing.T) {
	orderItems := []int64{1, 2, 3, 4}

	t.Run("full disjoint cover passes", func(t *testing.T) {
		err := ValidateSplitPartitions(orderItems, [][]int64{{1, 3}, {2, 4}})
		assert.NoError(t, err)
	})

	t.Run("missing item is an incomplete split", func(t *testing.T) {
		err := ValidateSplitPartitions(orderItems, [][]int64{{1, 2}, {3}})
		assert.ErrorIs(t, err, ErrIncompleteSplit)
	})

	t.Run("item in two partitions is a duplicate assignment", func(t *testing.T) {
		err := ValidateSplitPartitions(orderItems, [][]int64{{1, 2}, {2, 3, 4}})
		assert.ErrorIs(t, err, ErrDuplicateAssignment)
	})

	t.Run("unknown item fails validation", func(t *testing.T) {
		err := ValidateSplitPartitions(orderItems, [][]int64{{1, 2}, {3, 4, 99}})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty partition fails validation", func(t *testing.T) {
		err := ValidateSplitPartitions(orderItems, [][]int64{{1, 2, 3, 4}, {}})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("single partition covering everything passes", func(t *testing.T) {
		err := ValidateSplitPartitions(orderItems, [][]int64{{4, 3, 2, 1}})
		assert.NoError(t, err)
	})
}

// Voiding a split partition must give its order items back: the order may not
// finalize until those items are billed and paid again.
func TestMarkPaidAfterVoidKeepsOrderOpen(t *testing.T) {
	svc, mock := newInvoiceServiceForTest(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM invoices WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(addInvoiceRow(invoiceRowsForTest(), 2, "FACT-20260115-0002", models.InvoiceStatusPending, now))
	mock.ExpectQuery("FROM orders WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(orderRowForTest(1, "ORD-20260115-0001", int64(7), models.OrderStatusPartiallyInvoiced, now))
	mock.ExpectExec("UPDATE invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Partition 1 was voided, partition 2 is now paid.
	voidAndPaid := addInvoiceRow(invoiceRowsForTest(), 1, "FACT-20260115-0001", models.InvoiceStatusVoided, now)
	mock.ExpectQuery("FROM invoices WHERE order_id").
		WithArgs(int64(1)).
		WillReturnRows(addInvoiceRow(voidAndPaid, 2, "FACT-20260115-0002", models.InvoiceStatusPaid, now))
	// The voided partition's items are back in the unbilled pool, so the
	// order stays partially_invoiced instead of finalizing.
	mock.ExpectQuery("LEFT JOIN invoice_items").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM invoices WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(addInvoiceRow(invoiceRowsForTest(), 2, "FACT-20260115-0002", models.InvoiceStatusPaid, now))
	mock.ExpectQuery("FROM invoice_items ii").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "order_item_id", "quantity", "unit_price", "discount", "subtotal"}))

	invoice, err := svc.MarkPaid(2, PayInvoiceRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoidFreesItemAssignments(t *testing.T) {
	svc, mock := newInvoiceServiceForTest(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM invoices WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(addInvoiceRow(invoiceRowsForTest(), 1, "FACT-20260115-0001", models.InvoiceStatusPending, now))
	mock.ExpectQuery("FROM orders WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(orderRowForTest(1, "ORD-20260115-0001", nil, models.OrderStatusDelivered, now))
	mock.ExpectExec("UPDATE invoices").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM invoice_items").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("FROM invoices WHERE order_id").
		WithArgs(int64(1)).
		WillReturnRows(addInvoiceRow(invoiceRowsForTest(), 1, "FACT-20260115-0001", models.InvoiceStatusVoided, now))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM invoices WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(addInvoiceRow(invoiceRowsForTest(), 1, "FACT-20260115-0001", models.InvoiceStatusVoided, now))
	mock.ExpectQuery("FROM invoice_items ii").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "order_item_id", "quantity", "unit_price", "discount", "subtotal"}))

	invoice, err := svc.Void(1, VoidInvoiceRequest{Reason: "wrong payer"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusVoided, invoice.Status)
	assert.Empty(t, invoice.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}
