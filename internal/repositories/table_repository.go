package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resto_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the interface for restaurant table database operations.
type TableRepository interface {
	CreateTable(executor SQLExecutor, table *models.RestaurantTable) (int64, error)
	GetTableByID(executor SQLExecutor, tableID int64) (*models.RestaurantTable, error)
	GetTables(filters models.TableFilters) ([]models.RestaurantTable, error)
	UpdateTable(executor SQLExecutor, table *models.RestaurantTable) error
	DeactivateTable(executor SQLExecutor, tableID int64) error
	// TransitionStatus atomically moves a table from one of the allowed
	// statuses to the new one. Returns ErrNotFound when the table exists in
	// none of the allowed statuses (caller distinguishes missing vs. illegal).
	TransitionStatus(executor SQLExecutor, tableID int64, from []models.TableStatus, to models.TableStatus, motive *string) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) CreateTable(executor SQLExecutor, table *models.RestaurantTable) (int64, error) {
	query := `INSERT INTO restaurant_tables
	            (name, capacity, zone, status, status_motive, status_changed_at, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	now := time.Now()
	if table.Status == "" {
		table.Status = models.TableStatusFree
	}
	err := executor.QueryRow(query,
		table.Name, table.Capacity, table.Zone, table.Status, table.StatusMotive,
		now, true, now, now,
	).Scan(&table.ID)

	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: table name %q", ErrDuplicateKey, table.Name)
		}
		return 0, fmt.Errorf("%w: creating table: %v", ErrDatabaseError, err)
	}
	table.StatusChangedAt = now
	table.IsActive = true
	table.CreatedAt = now
	table.UpdatedAt = now
	return table.ID, nil
}

func (r *tableRepository) GetTableByID(executor SQLExecutor, tableID int64) (*models.RestaurantTable, error) {
	if executor == nil {
		executor = r.db
	}
	table := &models.RestaurantTable{}
	query := `SELECT id, name, capacity, zone, status, status_motive, status_changed_at, is_active, created_at, updated_at
	          FROM restaurant_tables
	          WHERE id = $1`
	err := executor.QueryRow(query, tableID).Scan(
		&table.ID, &table.Name, &table.Capacity, &table.Zone, &table.Status, &table.StatusMotive,
		&table.StatusChangedAt, &table.IsActive, &table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table by ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return table, nil
}

func (r *tableRepository) GetTables(filters models.TableFilters) ([]models.RestaurantTable, error) {
	tables := []models.RestaurantTable{}
	query := `SELECT id, name, capacity, zone, status, status_motive, status_changed_at, is_active, created_at, updated_at
	          FROM restaurant_tables
	          WHERE ($1::text IS NULL OR status = $1)
	            AND ($2::text IS NULL OR zone = $2)
	            AND ($3::bool = false OR is_active = true)
	          ORDER BY name`

	rows, err := r.db.Query(query, filters.Status, filters.Zone, filters.OnlyActive)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.RestaurantTable
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Capacity, &t.Zone, &t.Status, &t.StatusMotive,
			&t.StatusChangedAt, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table rows: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) UpdateTable(executor SQLExecutor, table *models.RestaurantTable) error {
	query := `UPDATE restaurant_tables
	          SET name = $1, capacity = $2, zone = $3, updated_at = $4
	          WHERE id = $5`
	result, err := executor.Exec(query, table.Name, table.Capacity, table.Zone, time.Now(), table.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: table name %q", ErrDuplicateKey, table.Name)
		}
		return fmt.Errorf("%w: updating table ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for table update ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) DeactivateTable(executor SQLExecutor, tableID int64) error {
	query := `UPDATE restaurant_tables SET is_active = false, updated_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, time.Now(), tableID)
	if err != nil {
		return fmt.Errorf("%w: deactivating table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for table deactivation ID %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) TransitionStatus(executor SQLExecutor, tableID int64, from []models.TableStatus, to models.TableStatus, motive *string) error {
	fromStrs := make([]string, 0, len(from))
	for _, s := range from {
		fromStrs = append(fromStrs, string(s))
	}

	now := time.Now()
	query := `UPDATE restaurant_tables
	          SET status = $1, status_motive = $2, status_changed_at = $3, updated_at = $3
	          WHERE id = $4 AND is_active = true AND status = ANY($5)`
	result, err := executor.Exec(query, to, motive, now, tableID, pq.Array(fromStrs))
	if err != nil {
		return fmt.Errorf("%w: transitioning table ID %d to %s: %v", ErrDatabaseError, tableID, to, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for table transition ID %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
