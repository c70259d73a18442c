package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto_backend/internal/models"
)

// ErrStockGuard is returned by ApplyDelta when the guarded update matched no
// row because the delta would drive the available quantity below zero.
var ErrStockGuard = errors.New("stock change rejected by non-negative guard")

// InventoryRepository defines the interface for stock record and movement
// database operations. ApplyDelta plus AppendMovement form the ledger: every
// committed quantity change has exactly one movement explaining it.
type InventoryRepository interface {
	CreateRecord(executor SQLExecutor, record *models.InventoryRecord) (int64, error)
	GetRecordByProductID(executor SQLExecutor, productID int64) (*models.InventoryRecord, error)
	// ApplyDelta atomically adds delta to the available quantity, refusing the
	// change when it would go negative. Returns the new available quantity.
	ApplyDelta(executor SQLExecutor, productID int64, delta int) (int, error)
	AppendMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error)
	// OutstandingReservations derives the reserved-but-not-yet-released unit
	// count for a product from the movement ledger.
	OutstandingReservations(executor SQLExecutor, productID int64) (int, error)
	GetMovements(filters models.MovementFilters) ([]models.InventoryMovement, int, error)
	GetLowStock() ([]models.InventoryRecord, error)
	GetOutOfStock() ([]models.InventoryRecord, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) CreateRecord(executor SQLExecutor, record *models.InventoryRecord) (int64, error) {
	query := `INSERT INTO inventory_records (product_id, available, low_stock_threshold, updated_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		record.ProductID, record.Available, record.LowStockThreshold, now,
	).Scan(&record.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: inventory record for product ID %d", ErrDuplicateKey, record.ProductID)
		}
		if IsForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: product ID %d", ErrNotFound, record.ProductID)
		}
		return 0, fmt.Errorf("%w: creating inventory record: %v", ErrDatabaseError, err)
	}
	record.UpdatedAt = now
	return record.ID, nil
}

func (r *inventoryRepository) GetRecordByProductID(executor SQLExecutor, productID int64) (*models.InventoryRecord, error) {
	if executor == nil {
		executor = r.db
	}
	record := &models.InventoryRecord{}
	query := `SELECT id, product_id, available, low_stock_threshold, updated_at
	          FROM inventory_records
	          WHERE product_id = $1`
	err := executor.QueryRow(query, productID).Scan(
		&record.ID, &record.ProductID, &record.Available, &record.LowStockThreshold, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory record for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return record, nil
}

func (r *inventoryRepository) ApplyDelta(executor SQLExecutor, productID int64, delta int) (int, error) {
	// The WHERE guard makes concurrent reservations of the last units
	// serialize on the row: exactly one writer wins, the loser matches no row.
	query := `UPDATE inventory_records
	          SET available = available + $1, updated_at = $2
	          WHERE product_id = $3 AND available + $1 >= 0
	          RETURNING available`
	var newAvailable int
	err := executor.QueryRow(query, delta, time.Now(), productID).Scan(&newAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing record from a rejected change.
			if _, getErr := r.GetRecordByProductID(executor, productID); errors.Is(getErr, ErrNotFound) {
				return 0, ErrNotFound
			}
			return 0, ErrStockGuard
		}
		return 0, fmt.Errorf("%w: applying stock delta %d for product ID %d: %v", ErrDatabaseError, delta, productID, err)
	}
	return newAvailable, nil
}

func (r *inventoryRepository) AppendMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	query := `INSERT INTO inventory_movements
	          (product_id, movement_type, quantity_delta, quantity_before, quantity_after, actor, reference, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		movement.ProductID, movement.MovementType, movement.QuantityDelta,
		movement.QuantityBefore, movement.QuantityAfter,
		movement.Actor, movement.Reference, movement.Reason, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: appending inventory movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *inventoryRepository) OutstandingReservations(executor SQLExecutor, productID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	// Reservation deltas are negative and release deltas positive, so the
	// negated sum over both kinds is the quantity still held back.
	query := `SELECT COALESCE(-SUM(quantity_delta), 0)
	          FROM inventory_movements
	          WHERE product_id = $1 AND movement_type IN ('reservation', 'release')`
	var outstanding int
	if err := executor.QueryRow(query, productID).Scan(&outstanding); err != nil {
		return 0, fmt.Errorf("%w: computing outstanding reservations for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return outstanding, nil
}

func (r *inventoryRepository) GetMovements(filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    im.id, im.product_id, im.movement_type, im.quantity_delta, im.quantity_before, im.quantity_after,
	    im.actor, im.reference, im.reason, im.created_at,
	    p.name as product_name, p.sku as product_sku,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements im
	  JOIN products p ON im.product_id = p.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("im.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("im.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY im.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var movement models.InventoryMovement
		var product models.Product
		var productName sql.NullString
		var productSKU sql.NullString

		if err := rows.Scan(
			&movement.ID, &movement.ProductID, &movement.MovementType, &movement.QuantityDelta,
			&movement.QuantityBefore, &movement.QuantityAfter,
			&movement.Actor, &movement.Reference, &movement.Reason, &movement.CreatedAt,
			&productName, &productSKU,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}

		product.ID = movement.ProductID
		if productName.Valid {
			product.Name = productName.String
		}
		if productSKU.Valid {
			sku := productSKU.String
			product.SKU = &sku
		}
		movement.Product = &product
		movements = append(movements, movement)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}

	return movements, totalCount, nil
}

func (r *inventoryRepository) GetLowStock() ([]models.InventoryRecord, error) {
	return r.queryRecords(`SELECT ir.id, ir.product_id, ir.available, ir.low_stock_threshold, ir.updated_at, p.name, p.sku
	  FROM inventory_records ir
	  JOIN products p ON ir.product_id = p.id
	  WHERE ir.available <= ir.low_stock_threshold
	  ORDER BY ir.available ASC`)
}

func (r *inventoryRepository) GetOutOfStock() ([]models.InventoryRecord, error) {
	return r.queryRecords(`SELECT ir.id, ir.product_id, ir.available, ir.low_stock_threshold, ir.updated_at, p.name, p.sku
	  FROM inventory_records ir
	  JOIN products p ON ir.product_id = p.id
	  WHERE ir.available = 0
	  ORDER BY p.name`)
}

func (r *inventoryRepository) queryRecords(query string) ([]models.InventoryRecord, error) {
	records := []models.InventoryRecord{}
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying inventory records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.InventoryRecord
		var product models.Product
		var productName sql.NullString
		var productSKU sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.ProductID, &rec.Available, &rec.LowStockThreshold, &rec.UpdatedAt,
			&productName, &productSKU,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning inventory record: %v", ErrDatabaseError, err)
		}
		product.ID = rec.ProductID
		if productName.Valid {
			product.Name = productName.String
		}
		if productSKU.Valid {
			sku := productSKU.String
			product.SKU = &sku
		}
		rec.Product = &product
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory records: %v", ErrDatabaseError, err)
	}
	return records, nil
}
