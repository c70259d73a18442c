package services

import (
	"database/sql"
	"errors"
	"fmt"

	"resto_backend/internal/models"
	"resto_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

// CreateProductRequest is used for registering a new sellable product.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	SKU         *string         `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	TracksStock bool            `json:"tracks_stock"`
}

// UpdateProductRequest is used for editing a product. Existing order lines
// keep their snapshotted price.
type UpdateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	SKU         *string         `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	TracksStock bool            `json:"tracks_stock"`
	IsActive    bool            `json:"is_active"`
}

// ComboComponentRequest is one product entry inside a combo definition.
type ComboComponentRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// CreateComboRequest bundles products under a single price.
type CreateComboRequest struct {
	Name       string                  `json:"name" binding:"required"`
	Price      decimal.Decimal         `json:"price"`
	Components []ComboComponentRequest `json:"components" binding:"required,dive"`
}

// --- CatalogService interface ---

// CatalogService manages the sellable catalog: products and combos.
type CatalogService interface {
	CreateProduct(req CreateProductRequest) (*models.Product, error)
	UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error)
	GetProduct(productID int64) (*models.Product, error)
	ListProducts(onlyActive bool) ([]models.Product, error)

	CreateCombo(req CreateComboRequest) (*models.Combo, error)
	GetCombo(comboID int64) (*models.Combo, error)
	ListCombos(onlyActive bool) ([]models.Combo, error)
}

type catalogService struct {
	catalogRepo repositories.CatalogRepository
	db          *sql.DB
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(cr repositories.CatalogRepository, db *sql.DB) CatalogService {
	return &catalogService{catalogRepo: cr, db: db}
}

func (s *catalogService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: product name cannot be empty", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: product price must not be negative", ErrValidation)
	}
	product := &models.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Price:       req.Price,
		TracksStock: req.TracksStock,
	}
	if _, err := s.catalogRepo.CreateProduct(s.db, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: a product with this SKU already exists", ErrValidation)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: product price must not be negative", ErrValidation)
	}
	product, err := s.GetProduct(productID)
	if err != nil {
		return nil, err
	}
	product.Name = req.Name
	product.SKU = req.SKU
	product.Price = req.Price
	product.TracksStock = req.TracksStock
	product.IsActive = req.IsActive
	if err := s.catalogRepo.UpdateProduct(s.db, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrCatalogItemNotFound, productID)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetProduct(productID)
}

func (s *catalogService) GetProduct(productID int64) (*models.Product, error) {
	product, err := s.catalogRepo.GetProductByID(nil, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrCatalogItemNotFound, productID)
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(onlyActive bool) ([]models.Product, error) {
	products, err := s.catalogRepo.GetProducts(onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) CreateCombo(req CreateComboRequest) (*models.Combo, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: combo name cannot be empty", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: combo price must not be negative", ErrValidation)
	}
	if len(req.Components) == 0 {
		return nil, fmt.Errorf("%w: a combo needs at least one component", ErrValidation)
	}

	combo := &models.Combo{Name: req.Name, Price: req.Price}
	for _, comp := range req.Components {
		if comp.Quantity <= 0 {
			return nil, fmt.Errorf("%w: component quantity must be positive", ErrValidation)
		}
		if _, err := s.GetProduct(comp.ProductID); err != nil {
			return nil, err
		}
		combo.Components = append(combo.Components, models.ComboComponent{
			ProductID: comp.ProductID,
			Quantity:  comp.Quantity,
		})
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	comboID, err := s.catalogRepo.CreateCombo(tx, combo)
	if err != nil {
		return nil, fmt.Errorf("failed to create combo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit combo creation: %w", err)
	}
	return s.GetCombo(comboID)
}

func (s *catalogService) GetCombo(comboID int64) (*models.Combo, error) {
	combo, err := s.catalogRepo.GetComboByID(nil, comboID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: combo ID %d", ErrCatalogItemNotFound, comboID)
		}
		return nil, fmt.Errorf("failed to fetch combo: %w", err)
	}
	return combo, nil
}

func (s *catalogService) ListCombos(onlyActive bool) ([]models.Combo, error) {
	combos, err := s.catalogRepo.GetCombos(onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list combos: %w", err)
	}
	return combos, nil
}
