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

func newOrderServiceForTest(t *testing.T) (OrderService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewOrderService(
		repositories.NewOrderRepository(db),
		repositories.NewTableRepository(db),
		repositories.NewCatalogRepository(db),
		repositories.NewInventoryRepository(db),
		NewSequenceService(repositories.NewSequenceRepository(db)),
		db,
	), mock
}

func orderRowForTest(id int64, number string, tableID interface{}, status models.OrderStatus, at time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "number", "table_id", "customer_id", "created_by", "order_type", "status", "notes",
		"subtotal", "tax_total", "total", "version", "created_at", "updated_at",
	}).AddRow(id, number, tableID, nil, "waiter1", "dine_in", string(status), nil,
		"100.00", "18.00", "118.00", 1, at, at)
}

func orderItemRowsForTest(at time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_id", "product_id", "combo_id", "quantity", "unit_price",
		"discount", "subtotal", "notes", "created_at", "updated_at", "product_name", "combo_name",
	}).AddRow(2, 1, 5, nil, 2, "50.00", "0.00", "100.00", nil, at, at, "Burger", nil)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newOrderServiceForTest(t)
	tableID := int64(1)
	productID := int64(5)

	t.Run("unknown order type", func(t *testing.T) {
		_, err := svc.CreateOrder(CreateOrderRequest{
			OrderType: "room_service",
			Items:     []CreateOrderItemRequest{{ProductID: &productID, Quantity: 1}},
		}, "waiter1")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("no items", func(t *testing.T) {
		_, err := svc.CreateOrder(CreateOrderRequest{
			TableID:   &tableID,
			OrderType: "dine_in",
		}, "waiter1")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("dine-in needs a table", func(t *testing.T) {
		_, err := svc.CreateOrder(CreateOrderRequest{
			OrderType: "dine_in",
			Items:     []CreateOrderItemRequest{{ProductID: &productID, Quantity: 1}},
		}, "waiter1")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdateItemQuantityRejectsNonPositive(t *testing.T) {
	svc, _ := newOrderServiceForTest(t)

	_, err := svc.UpdateItemQuantity(1, 2, UpdateQuantityRequest{Quantity: 0}, "waiter1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdvanceStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newOrderServiceForTest(t)

	_, err := svc.AdvanceStatus(1, AdvanceOrderRequest{Status: "served"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelReleasesStockAndFreesTable(t *testing.T) {
	svc, mock := newOrderServiceForTest(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(orderRowForTest(1, "ORD-20260115-0001", int64(7), models.OrderStatusPending, now))
	mock.ExpectQuery("FROM order_items oi").
		WithArgs(int64(1)).
		WillReturnRows(orderItemRowsForTest(now))
	mock.ExpectQuery("FROM products WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sku", "price", "tracks_stock", "is_active", "created_at", "updated_at"}).
			AddRow(5, "Burger", nil, "50.00", true, true, now, now))
	// The two reserved units come back as a release movement.
	mock.ExpectQuery("UPDATE inventory_records").
		WithArgs(2, sqlmock.AnyArg(), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO inventory_movements").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	// No other active order holds table 7, so it frees.
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("UPDATE restaurant_tables").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM orders WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(orderRowForTest(1, "ORD-20260115-0001", int64(7), models.OrderStatusCancelled, now))
	mock.ExpectQuery("FROM order_items oi").
		WithArgs(int64(1)).
		WillReturnRows(orderItemRowsForTest(now))

	order, err := svc.Cancel(1, CancelOrderRequest{Reason: "guest left"}, "waiter1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectedOnceBillingStarted(t *testing.T) {
	svc, mock := newOrderServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(orderRowForTest(1, "ORD-20260115-0001", int64(7), models.OrderStatusPartiallyInvoiced, time.Now()))
	mock.ExpectRollback()

	_, err := svc.Cancel(1, CancelOrderRequest{Reason: "late change"}, "waiter1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelIsIdempotent(t *testing.T) {
	svc, mock := newOrderServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(orderRowForTest(1, "ORD-20260115-0001", nil, models.OrderStatusCancelled, time.Now()))
	mock.ExpectRollback()

	order, err := svc.Cancel(1, CancelOrderRequest{}, "waiter1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
