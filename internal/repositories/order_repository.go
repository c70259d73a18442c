package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto_backend/internal/models"
)

// ErrVersionConflict is returned when an optimistic update matched no row
// because another writer bumped the order version first.
var ErrVersionConflict = errors.New("order version conflict")

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error)
	// GetOrderForUpdate locks the order row for the rest of the transaction.
	GetOrderForUpdate(executor SQLExecutor, orderID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrderStatus(executor SQLExecutor, orderID int64, newStatus models.OrderStatus, updatedAt time.Time) error
	// UpdateOrderTotals rewrites the cached totals with an optimistic version
	// check; a stale expectedVersion yields ErrVersionConflict.
	UpdateOrderTotals(executor SQLExecutor, order *models.Order, expectedVersion int64) error
	// CountActiveOrdersForTable counts non-terminal orders referencing a table.
	CountActiveOrdersForTable(executor SQLExecutor, tableID int64, excludeOrderID int64) (int, error)

	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderItemByID(executor SQLExecutor, itemID int64) (*models.OrderItem, error)
	GetOrderItemsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItem, error)
	UpdateOrderItemQuantity(executor SQLExecutor, item *models.OrderItem) error
	DeleteOrderItem(executor SQLExecutor, itemID int64) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, number, table_id, customer_id, created_by, order_type, status, notes,
	                 subtotal, tax_total, total, version, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }, o *models.Order) error {
	return row.Scan(
		&o.ID, &o.Number, &o.TableID, &o.CustomerID, &o.CreatedBy, &o.OrderType, &o.Status, &o.Notes,
		&o.Subtotal, &o.TaxTotal, &o.Total, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
}

// --- Order methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (number, table_id, customer_id, created_by, order_type, status, notes,
	             subtotal, tax_total, total, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	order.Version = 1

	err := executor.QueryRow(query,
		order.Number, order.TableID, order.CustomerID, order.CreatedBy, order.OrderType, order.Status, order.Notes,
		order.Subtotal, order.TaxTotal, order.Total, order.Version, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: order number %s", ErrDuplicateKey, order.Number)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(executor SQLExecutor, orderID int64) (*models.Order, error) {
	if executor == nil {
		executor = r.db
	}
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := scanOrder(executor.QueryRow(query, orderID), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrderForUpdate(executor SQLExecutor, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	if err := scanOrder(executor.QueryRow(query, orderID), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            o.id, o.number, o.table_id, o.customer_id, o.created_by, o.order_type, o.status, o.notes,
            o.subtotal, o.tax_total, o.total, o.version, o.created_at, o.updated_at,
            rt.name as table_name,
            c.full_name as customer_name,
            COUNT(*) OVER() as total_count
        FROM orders o
        LEFT JOIN restaurant_tables rt ON o.table_id = rt.id
        LEFT JOIN customers c ON o.customer_id = c.id
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", argCounter))
		args = append(args, *filters.CustomerID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.OrderType != nil && *filters.OrderType != "" {
		conditions = append(conditions, fmt.Sprintf("o.order_type = $%d", argCounter))
		args = append(args, *filters.OrderType)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("o.created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var tableName, customerName sql.NullString

		err := rows.Scan(
			&o.ID, &o.Number, &o.TableID, &o.CustomerID, &o.CreatedBy, &o.OrderType, &o.Status, &o.Notes,
			&o.Subtotal, &o.TaxTotal, &o.Total, &o.Version, &o.CreatedAt, &o.UpdatedAt,
			&tableName, &customerName,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}

		if o.TableID != nil && tableName.Valid {
			o.Table = &models.RestaurantTable{ID: *o.TableID, Name: tableName.String}
		}
		if o.CustomerID != nil && customerName.Valid {
			o.Customer = &models.Customer{ID: *o.CustomerID, FullName: customerName.String}
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, newStatus models.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, newStatus, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdateOrderTotals(executor SQLExecutor, order *models.Order, expectedVersion int64) error {
	query := `UPDATE orders
	          SET subtotal = $1, tax_total = $2, total = $3, version = version + 1, updated_at = $4
	          WHERE id = $5 AND version = $6`
	result, err := executor.Exec(query,
		order.Subtotal, order.TaxTotal, order.Total, time.Now(), order.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("%w: updating totals for order ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order totals update ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	if rowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	return nil
}

func (r *orderRepository) CountActiveOrdersForTable(executor SQLExecutor, tableID int64, excludeOrderID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT COUNT(*) FROM orders
	          WHERE table_id = $1 AND id <> $2 AND status NOT IN ($3, $4)`
	var count int
	err := executor.QueryRow(query, tableID, excludeOrderID, models.OrderStatusInvoiced, models.OrderStatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active orders for table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return count, nil
}

// --- OrderItem methods ---

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items
	            (order_id, product_id, combo_id, quantity, unit_price, discount, subtotal, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}

	err := executor.QueryRow(query,
		item.OrderID, item.ProductID, item.ComboID, item.Quantity, item.UnitPrice,
		item.Discount, item.Subtotal, item.Notes, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: order item reference", ErrNotFound)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItemByID(executor SQLExecutor, itemID int64) (*models.OrderItem, error) {
	if executor == nil {
		executor = r.db
	}
	item := &models.OrderItem{}
	query := `SELECT id, order_id, product_id, combo_id, quantity, unit_price, discount, subtotal, notes, created_at, updated_at
	          FROM order_items WHERE id = $1`
	err := executor.QueryRow(query, itemID).Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ComboID, &item.Quantity, &item.UnitPrice,
		&item.Discount, &item.Subtotal, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(executor SQLExecutor, orderID int64) ([]models.OrderItem, error) {
	if executor == nil {
		executor = r.db
	}
	items := []models.OrderItem{}
	query := `
		SELECT
		    oi.id, oi.order_id, oi.product_id, oi.combo_id, oi.quantity, oi.unit_price,
		    oi.discount, oi.subtotal, oi.notes, oi.created_at, oi.updated_at,
		    p.name as product_name, cb.name as combo_name
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		LEFT JOIN combos cb ON oi.combo_id = cb.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := executor.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var productName, comboName sql.NullString

		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ComboID, &item.Quantity, &item.UnitPrice,
			&item.Discount, &item.Subtotal, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
			&productName, &comboName,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}

		if item.ProductID != nil && productName.Valid {
			item.Product = &models.Product{ID: *item.ProductID, Name: productName.String}
		}
		if item.ComboID != nil && comboName.Valid {
			item.Combo = &models.Combo{ID: *item.ComboID, Name: comboName.String}
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}

func (r *orderRepository) UpdateOrderItemQuantity(executor SQLExecutor, item *models.OrderItem) error {
	query := `UPDATE order_items SET quantity = $1, subtotal = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, item.Quantity, item.Subtotal, time.Now(), item.ID)
	if err != nil {
		return fmt.Errorf("%w: updating order item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order item update ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrderItem(executor SQLExecutor, itemID int64) error {
	query := `DELETE FROM order_items WHERE id = $1`
	result, err := executor.Exec(query, itemID)
	if err != nil {
		return fmt.Errorf("%w: deleting order item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting order item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
