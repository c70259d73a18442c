package services

import (
	"testing"
	"time"

	"resto_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventoryServiceForTest(t *testing.T) (InventoryService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	inventoryRepo := repositories.NewInventoryRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	return NewInventoryService(inventoryRepo, catalogRepo, db), mock
}

func TestInventoryReserveWritesMovement(t *testing.T) {
	svc, mock := newInventoryServiceForTest(t)

	mock.ExpectBegin()
	// Guarded decrement: 5 units available, 2 reserved, 3 remain.
	mock.ExpectQuery("UPDATE inventory_records").
		WithArgs(-2, sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(3))
	mock.ExpectQuery("INSERT INTO inventory_movements").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, product_id, available").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "available", "low_stock_threshold", "updated_at"}).
			AddRow(1, 10, 3, 5, time.Now()))

	record, err := svc.Reserve(StockChangeRequest{ProductID: 10, Quantity: 2, Reference: "ORD-20260115-0001"}, "waiter1")
	require.NoError(t, err)
	assert.Equal(t, 3, record.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryReserveInsufficientStock(t *testing.T) {
	svc, mock := newInventoryServiceForTest(t)

	mock.ExpectBegin()
	// The guarded update matches no row, and the follow-up read finds the
	// record, so the rejection is a guard failure rather than a missing record.
	mock.ExpectQuery("UPDATE inventory_records").
		WithArgs(-5, sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"available"}))
	mock.ExpectQuery("SELECT id, product_id, available").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "available", "low_stock_threshold", "updated_at"}).
			AddRow(1, 10, 2, 5, time.Now()))
	mock.ExpectRollback()

	_, err := svc.Reserve(StockChangeRequest{ProductID: 10, Quantity: 5}, "waiter1")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryReserveUnknownProduct(t *testing.T) {
	svc, mock := newInventoryServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE inventory_records").
		WithArgs(-1, sqlmock.AnyArg(), int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"available"}))
	mock.ExpectQuery("SELECT id, product_id, available").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "available", "low_stock_threshold", "updated_at"}))
	mock.ExpectRollback()

	_, err := svc.Reserve(StockChangeRequest{ProductID: 99, Quantity: 1}, "waiter1")
	assert.ErrorIs(t, err, ErrInventoryRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryReserveRejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newInventoryServiceForTest(t)

	_, err := svc.Reserve(StockChangeRequest{ProductID: 10, Quantity: 0}, "waiter1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Reserve(StockChangeRequest{ProductID: 10, Quantity: -3}, "waiter1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInventoryReleaseRejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newInventoryServiceForTest(t)

	_, err := svc.Release(StockChangeRequest{ProductID: 10, Quantity: -1}, "waiter1")
	assert.ErrorIs(t, err, ErrInvalidMovement)
}

func TestInventoryReleaseBoundedByReservations(t *testing.T) {
	svc, mock := newInventoryServiceForTest(t)

	mock.ExpectBegin()
	// The ledger shows 5 reserved units still outstanding.
	mock.ExpectQuery("FROM inventory_movements").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(5))
	mock.ExpectQuery("UPDATE inventory_records").
		WithArgs(2, sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(5))
	mock.ExpectQuery("INSERT INTO inventory_movements").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, product_id, available").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "available", "low_stock_threshold", "updated_at"}).
			AddRow(1, 10, 5, 5, time.Now()))

	record, err := svc.Release(StockChangeRequest{ProductID: 10, Quantity: 2, Reference: "ORD-20260115-0001"}, "waiter1")
	require.NoError(t, err)
	assert.Equal(t, 5, record.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryReleaseRejectsOverRelease(t *testing.T) {
	svc, mock := newInventoryServiceForTest(t)

	mock.ExpectBegin()
	// Only 1 reserved unit is outstanding; releasing 4 would fabricate stock.
	mock.ExpectQuery("FROM inventory_movements").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Release(StockChangeRequest{ProductID: 10, Quantity: 4}, "waiter1")
	assert.ErrorIs(t, err, ErrInvalidMovement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryAdjustComputesDelta(t *testing.T) {
	svc, mock := newInventoryServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, product_id, available").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "available", "low_stock_threshold", "updated_at"}).
			AddRow(1, 10, 8, 5, time.Now()))
	// Counted 6 on the shelf, so the adjustment delta is -2.
	mock.ExpectQuery("UPDATE inventory_records").
		WithArgs(-2, sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(6))
	mock.ExpectQuery("INSERT INTO inventory_movements").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, product_id, available").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "available", "low_stock_threshold", "updated_at"}).
			AddRow(1, 10, 6, 5, time.Now()))

	record, err := svc.Adjust(AdjustStockRequest{ProductID: 10, NewQuantity: 6, Motive: "cycle count"}, "manager1")
	require.NoError(t, err)
	assert.Equal(t, 6, record.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryAdjustRequiresMotive(t *testing.T) {
	svc, _ := newInventoryServiceForTest(t)

	_, err := svc.Adjust(AdjustStockRequest{ProductID: 10, NewQuantity: 6}, "manager1")
	assert.ErrorIs(t, err, ErrValidation)
}
