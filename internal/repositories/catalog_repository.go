package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resto_backend/internal/models"
)

// CatalogRepository defines the interface for product and combo database operations.
type CatalogRepository interface {
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(executor SQLExecutor, productID int64) (*models.Product, error)
	GetProducts(onlyActive bool) ([]models.Product, error)
	UpdateProduct(executor SQLExecutor, product *models.Product) error

	CreateCombo(executor SQLExecutor, combo *models.Combo) (int64, error)
	GetComboByID(executor SQLExecutor, comboID int64) (*models.Combo, error)
	GetCombos(onlyActive bool) ([]models.Combo, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// --- Product methods ---

func (r *catalogRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products (name, sku, price, tracks_stock, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query,
		product.Name, product.SKU, product.Price, product.TracksStock, true, now, now,
	).Scan(&product.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: product sku", ErrDuplicateKey)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	product.IsActive = true
	product.CreatedAt = now
	product.UpdatedAt = now
	return product.ID, nil
}

func (r *catalogRepository) GetProductByID(executor SQLExecutor, productID int64) (*models.Product, error) {
	if executor == nil {
		executor = r.db
	}
	product := &models.Product{}
	query := `SELECT id, name, sku, price, tracks_stock, is_active, created_at, updated_at
	          FROM products WHERE id = $1`
	err := executor.QueryRow(query, productID).Scan(
		&product.ID, &product.Name, &product.SKU, &product.Price, &product.TracksStock,
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, productID, err)
	}
	return product, nil
}

func (r *catalogRepository) GetProducts(onlyActive bool) ([]models.Product, error) {
	products := []models.Product{}
	query := `SELECT id, name, sku, price, tracks_stock, is_active, created_at, updated_at
	          FROM products
	          WHERE ($1::bool = false OR is_active = true)
	          ORDER BY name`
	rows, err := r.db.Query(query, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.SKU, &p.Price, &p.TracksStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *catalogRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products
	          SET name = $1, sku = $2, price = $3, tracks_stock = $4, is_active = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query,
		product.Name, product.SKU, product.Price, product.TracksStock, product.IsActive, time.Now(), product.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for product update ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Combo methods ---

func (r *catalogRepository) CreateCombo(executor SQLExecutor, combo *models.Combo) (int64, error) {
	query := `INSERT INTO combos (name, price, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	now := time.Now()
	err := executor.QueryRow(query, combo.Name, combo.Price, true, now, now).Scan(&combo.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating combo: %v", ErrDatabaseError, err)
	}

	componentQuery := `INSERT INTO combo_components (combo_id, product_id, quantity)
	                   VALUES ($1, $2, $3)
	                   RETURNING id`
	for i := range combo.Components {
		comp := &combo.Components[i]
		comp.ComboID = combo.ID
		if err := executor.QueryRow(componentQuery, combo.ID, comp.ProductID, comp.Quantity).Scan(&comp.ID); err != nil {
			if IsForeignKeyViolation(err) {
				return 0, fmt.Errorf("%w: combo component product ID %d", ErrNotFound, comp.ProductID)
			}
			return 0, fmt.Errorf("%w: creating combo component: %v", ErrDatabaseError, err)
		}
	}
	combo.IsActive = true
	combo.CreatedAt = now
	combo.UpdatedAt = now
	return combo.ID, nil
}

func (r *catalogRepository) GetComboByID(executor SQLExecutor, comboID int64) (*models.Combo, error) {
	if executor == nil {
		executor = r.db
	}
	combo := &models.Combo{}
	query := `SELECT id, name, price, is_active, created_at, updated_at FROM combos WHERE id = $1`
	err := executor.QueryRow(query, comboID).Scan(
		&combo.ID, &combo.Name, &combo.Price, &combo.IsActive, &combo.CreatedAt, &combo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting combo by ID %d: %v", ErrDatabaseError, comboID, err)
	}

	componentQuery := `
		SELECT cc.id, cc.combo_id, cc.product_id, cc.quantity,
		       p.name, p.tracks_stock, p.is_active
		FROM combo_components cc
		JOIN products p ON cc.product_id = p.id
		WHERE cc.combo_id = $1
		ORDER BY cc.id`
	rows, err := executor.Query(componentQuery, comboID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying combo components for combo ID %d: %v", ErrDatabaseError, comboID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var comp models.ComboComponent
		var product models.Product
		if err := rows.Scan(
			&comp.ID, &comp.ComboID, &comp.ProductID, &comp.Quantity,
			&product.Name, &product.TracksStock, &product.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning combo component: %v", ErrDatabaseError, err)
		}
		product.ID = comp.ProductID
		comp.Product = &product
		combo.Components = append(combo.Components, comp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating combo component rows: %v", ErrDatabaseError, err)
	}
	return combo, nil
}

func (r *catalogRepository) GetCombos(onlyActive bool) ([]models.Combo, error) {
	combos := []models.Combo{}
	query := `SELECT id, name, price, is_active, created_at, updated_at
	          FROM combos
	          WHERE ($1::bool = false OR is_active = true)
	          ORDER BY name`
	rows, err := r.db.Query(query, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("%w: querying combos: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cb models.Combo
		if err := rows.Scan(&cb.ID, &cb.Name, &cb.Price, &cb.IsActive, &cb.CreatedAt, &cb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning combo: %v", ErrDatabaseError, err)
		}
		combos = append(combos, cb)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating combo rows: %v", ErrDatabaseError, err)
	}
	return combos, nil
}
