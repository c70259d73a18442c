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

func newTableServiceForTest(t *testing.T) (TableService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTableService(repositories.NewTableRepository(db), db), mock
}

func tableRow(id int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "capacity", "zone", "status", "status_motive", "status_changed_at",
		"is_active", "created_at", "updated_at",
	}).AddRow(id, "T1", 4, nil, status, nil, now, true, now, now)
}

func TestTableOccupyFromFree(t *testing.T) {
	svc, mock := newTableServiceForTest(t)

	mock.ExpectExec("UPDATE restaurant_tables").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, capacity").
		WithArgs(int64(1)).
		WillReturnRows(tableRow(1, "occupied"))

	table, err := svc.Occupy(1)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableOccupyRejectedWhenOccupied(t *testing.T) {
	svc, mock := newTableServiceForTest(t)

	// The guarded update matches no row; the follow-up read explains why.
	mock.ExpectExec("UPDATE restaurant_tables").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, name, capacity").
		WithArgs(int64(1)).
		WillReturnRows(tableRow(1, "occupied"))

	_, err := svc.Occupy(1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableOccupyUnknownTable(t *testing.T) {
	svc, mock := newTableServiceForTest(t)

	mock.ExpectExec("UPDATE restaurant_tables").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, name, capacity").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "capacity", "zone", "status", "status_motive", "status_changed_at",
			"is_active", "created_at", "updated_at",
		}))

	_, err := svc.Occupy(42)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableFreeIsIdempotent(t *testing.T) {
	svc, mock := newTableServiceForTest(t)

	mock.ExpectQuery("SELECT id, name, capacity").
		WithArgs(int64(1)).
		WillReturnRows(tableRow(1, "free"))

	table, err := svc.Free(1)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusFree, table.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableFreeBlockedDuringMaintenance(t *testing.T) {
	svc, mock := newTableServiceForTest(t)

	mock.ExpectQuery("SELECT id, name, capacity").
		WithArgs(int64(1)).
		WillReturnRows(tableRow(1, "maintenance"))

	_, err := svc.Free(1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableValidation(t *testing.T) {
	svc, _ := newTableServiceForTest(t)

	_, err := svc.CreateTable(CreateTableRequest{Name: "", Capacity: 4})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTable(CreateTableRequest{Name: "T1", Capacity: 0})
	assert.ErrorIs(t, err, ErrValidation)
}
