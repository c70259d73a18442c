package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resto_backend/internal/models"
)

// CustomerRepository defines the interface for customer database operations.
type CustomerRepository interface {
	CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(executor SQLExecutor, customerID int64) (*models.Customer, error)
	GetCustomers(page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(executor SQLExecutor, customer *models.Customer) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (full_name, phone_number, document, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		customer.FullName, customer.PhoneNumber, customer.Document, customer.Notes, now, now,
	).Scan(&customer.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: customer document", ErrDuplicateKey)
		}
		return 0, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(executor SQLExecutor, customerID int64) (*models.Customer, error) {
	if executor == nil {
		executor = r.db
	}
	customer := &models.Customer{}
	query := `SELECT id, full_name, phone_number, document, notes, created_at, updated_at
	          FROM customers WHERE id = $1`
	err := executor.QueryRow(query, customerID).Scan(
		&customer.ID, &customer.FullName, &customer.PhoneNumber, &customer.Document,
		&customer.Notes, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomers(page, pageSize int) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0
	query := `SELECT id, full_name, phone_number, document, notes, created_at, updated_at,
	                 COUNT(*) OVER() as total_count
	          FROM customers
	          ORDER BY full_name
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(
			&c.ID, &c.FullName, &c.PhoneNumber, &c.Document, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) UpdateCustomer(executor SQLExecutor, customer *models.Customer) error {
	query := `UPDATE customers
	          SET full_name = $1, phone_number = $2, document = $3, notes = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		customer.FullName, customer.PhoneNumber, customer.Document, customer.Notes, time.Now(), customer.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating customer ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for customer update ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
