package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto_backend/internal/models"
)

// InvoiceRepository defines the interface for invoice database operations.
type InvoiceRepository interface {
	CreateInvoice(executor SQLExecutor, invoice *models.Invoice) (int64, error)
	CreateInvoiceItem(executor SQLExecutor, item *models.InvoiceItem) (int64, error)
	GetInvoiceByID(executor SQLExecutor, invoiceID int64) (*models.Invoice, error)
	// GetInvoiceForUpdate locks the invoice row for the rest of the transaction.
	GetInvoiceForUpdate(executor SQLExecutor, invoiceID int64) (*models.Invoice, error)
	GetInvoiceItems(executor SQLExecutor, invoiceID int64) ([]models.InvoiceItem, error)
	GetInvoicesByOrderID(executor SQLExecutor, orderID int64) ([]models.Invoice, error)
	GetInvoices(filters models.InvoiceFilters) ([]models.Invoice, int, error)
	// UpdateInvoiceStatus persists status, payment method, paid_at and void reason.
	UpdateInvoiceStatus(executor SQLExecutor, invoice *models.Invoice) error
	// DeleteInvoiceItems removes the invoice's line-item assignments, returning
	// the covered order items to the unbilled pool.
	DeleteInvoiceItems(executor SQLExecutor, invoiceID int64) error
	// CountUnbilledItems counts the order's items not assigned to any invoice.
	CountUnbilledItems(executor SQLExecutor, orderID int64) (int, error)
}

type invoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new instance of InvoiceRepository.
func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, number, order_id, customer_id, payer_name, payer_document,
	                 subtotal, tax_total, discount, tip, total, payment_method, status,
	                 paid_at, void_reason, notes, created_at, updated_at`

func scanInvoice(row interface{ Scan(...interface{}) error }, inv *models.Invoice) error {
	return row.Scan(
		&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerID, &inv.PayerName, &inv.PayerDocument,
		&inv.Subtotal, &inv.TaxTotal, &inv.Discount, &inv.Tip, &inv.Total, &inv.PaymentMethod, &inv.Status,
		&inv.PaidAt, &inv.VoidReason, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
}

func (r *invoiceRepository) CreateInvoice(executor SQLExecutor, invoice *models.Invoice) (int64, error) {
	query := `INSERT INTO invoices
	            (number, order_id, customer_id, payer_name, payer_document,
	             subtotal, tax_total, discount, tip, total, payment_method, status,
	             paid_at, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING id`

	now := time.Now()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	if invoice.UpdatedAt.IsZero() {
		invoice.UpdatedAt = now
	}

	err := executor.QueryRow(query,
		invoice.Number, invoice.OrderID, invoice.CustomerID, invoice.PayerName, invoice.PayerDocument,
		invoice.Subtotal, invoice.TaxTotal, invoice.Discount, invoice.Tip, invoice.Total,
		invoice.PaymentMethod, invoice.Status, invoice.PaidAt, invoice.Notes,
		invoice.CreatedAt, invoice.UpdatedAt,
	).Scan(&invoice.ID)

	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: invoice number %s", ErrDuplicateKey, invoice.Number)
		}
		return 0, fmt.Errorf("%w: creating invoice: %v", ErrDatabaseError, err)
	}
	return invoice.ID, nil
}

func (r *invoiceRepository) CreateInvoiceItem(executor SQLExecutor, item *models.InvoiceItem) (int64, error) {
	query := `INSERT INTO invoice_items (invoice_id, order_item_id)
	          VALUES ($1, $2)
	          RETURNING id`
	err := executor.QueryRow(query, item.InvoiceID, item.OrderItemID).Scan(&item.ID)
	if err != nil {
		// The unique index on order_item_id is the store-level backstop for
		// disjoint split assignments.
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: order item %d already invoiced", ErrDuplicateKey, item.OrderItemID)
		}
		return 0, fmt.Errorf("%w: creating invoice item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *invoiceRepository) GetInvoiceByID(executor SQLExecutor, invoiceID int64) (*models.Invoice, error) {
	if executor == nil {
		executor = r.db
	}
	invoice := &models.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if err := scanInvoice(executor.QueryRow(query, invoiceID), invoice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting invoice by ID %d: %v", ErrDatabaseError, invoiceID, err)
	}
	return invoice, nil
}

func (r *invoiceRepository) GetInvoiceForUpdate(executor SQLExecutor, invoiceID int64) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	if err := scanInvoice(executor.QueryRow(query, invoiceID), invoice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking invoice ID %d: %v", ErrDatabaseError, invoiceID, err)
	}
	return invoice, nil
}

func (r *invoiceRepository) GetInvoiceItems(executor SQLExecutor, invoiceID int64) ([]models.InvoiceItem, error) {
	if executor == nil {
		executor = r.db
	}
	items := []models.InvoiceItem{}
	query := `
		SELECT ii.id, ii.invoice_id, ii.order_item_id,
		       oi.quantity, oi.unit_price, oi.discount, oi.subtotal
		FROM invoice_items ii
		JOIN order_items oi ON ii.order_item_id = oi.id
		WHERE ii.invoice_id = $1
		ORDER BY ii.id`

	rows, err := executor.Query(query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying invoice items for invoice ID %d: %v", ErrDatabaseError, invoiceID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InvoiceItem
		var orderItem models.OrderItem
		if err := rows.Scan(
			&item.ID, &item.InvoiceID, &item.OrderItemID,
			&orderItem.Quantity, &orderItem.UnitPrice, &orderItem.Discount, &orderItem.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning invoice item: %v", ErrDatabaseError, err)
		}
		orderItem.ID = item.OrderItemID
		item.OrderItem = &orderItem
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating invoice item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *invoiceRepository) GetInvoicesByOrderID(executor SQLExecutor, orderID int64) ([]models.Invoice, error) {
	if executor == nil {
		executor = r.db
	}
	invoices := []models.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE order_id = $1 ORDER BY id`
	rows, err := executor.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying invoices for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var inv models.Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("%w: scanning invoice: %v", ErrDatabaseError, err)
		}
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating invoice rows: %v", ErrDatabaseError, err)
	}
	return invoices, nil
}

func (r *invoiceRepository) GetInvoices(filters models.InvoiceFilters) ([]models.Invoice, int, error) {
	invoices := []models.Invoice{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            i.id, i.number, i.order_id, i.customer_id, i.payer_name, i.payer_document,
            i.subtotal, i.tax_total, i.discount, i.tip, i.total, i.payment_method, i.status,
            i.paid_at, i.void_reason, i.notes, i.created_at, i.updated_at,
            c.full_name as customer_name,
            COUNT(*) OVER() as total_count
        FROM invoices i
        LEFT JOIN customers c ON i.customer_id = c.id
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.OrderID != nil {
		conditions = append(conditions, fmt.Sprintf("i.order_id = $%d", argCounter))
		args = append(args, *filters.OrderID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("i.created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY i.created_at DESC")

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
		return nil, 0, fmt.Errorf("%w: querying invoices: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var inv models.Invoice
		var customerName sql.NullString

		err := rows.Scan(
			&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerID, &inv.PayerName, &inv.PayerDocument,
			&inv.Subtotal, &inv.TaxTotal, &inv.Discount, &inv.Tip, &inv.Total, &inv.PaymentMethod, &inv.Status,
			&inv.PaidAt, &inv.VoidReason, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
			&customerName,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning invoice: %v", ErrDatabaseError, err)
		}

		if inv.CustomerID != nil && customerName.Valid {
			inv.Customer = &models.Customer{ID: *inv.CustomerID, FullName: customerName.String}
		}
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating invoice rows: %v", ErrDatabaseError, err)
	}
	return invoices, totalCount, nil
}

func (r *invoiceRepository) DeleteInvoiceItems(executor SQLExecutor, invoiceID int64) error {
	query := `DELETE FROM invoice_items WHERE invoice_id = $1`
	if _, err := executor.Exec(query, invoiceID); err != nil {
		return fmt.Errorf("%w: deleting invoice items for invoice ID %d: %v", ErrDatabaseError, invoiceID, err)
	}
	return nil
}

func (r *invoiceRepository) CountUnbilledItems(executor SQLExecutor, orderID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT COUNT(*)
	          FROM order_items oi
	          LEFT JOIN invoice_items ii ON ii.order_item_id = oi.id
	          WHERE oi.order_id = $1 AND ii.id IS NULL`
	var count int
	if err := executor.QueryRow(query, orderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting unbilled items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return count, nil
}

func (r *invoiceRepository) UpdateInvoiceStatus(executor SQLExecutor, invoice *models.Invoice) error {
	query := `UPDATE invoices
	          SET status = $1, payment_method = $2, paid_at = $3, void_reason = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		invoice.Status, invoice.PaymentMethod, invoice.PaidAt, invoice.VoidReason, time.Now(), invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating invoice status for ID %d: %v", ErrDatabaseError, invoice.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for invoice status update ID %d: %v", ErrDatabaseError, invoice.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
