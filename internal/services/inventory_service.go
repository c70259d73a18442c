package services

import (
	"database/sql"
	"errors"
	"fmt"

	"resto_backend/internal/models"
	"resto_backend/internal/repositories"
	"resto_backend/pkg/utils"
)

// --- DTOs ---

// CreateInventoryRecordRequest registers stock tracking for a product.
type CreateInventoryRecordRequest struct {
	ProductID         int64 `json:"product_id" binding:"required"`
	Available         int   `json:"available" binding:"gte=0"`
	LowStockThreshold int   `json:"low_stock_threshold" binding:"gte=0"`
}

// StockChangeRequest is used for the reserve and release operations.
type StockChangeRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reference string `json:"reference"`
}

// AdjustStockRequest is used for manual stock corrections.
type AdjustStockRequest struct {
	ProductID   int64  `json:"product_id" binding:"required"`
	NewQuantity int    `json:"new_quantity" binding:"gte=0"`
	Motive      string `json:"motive" binding:"required"`
}

// --- InventoryService interface ---

// InventoryService is the inventory ledger: every quantity change goes
// through a guarded update plus an appended movement, so the available
// quantity never goes negative and is always explainable by the audit trail.
type InventoryService interface {
	CreateRecord(req CreateInventoryRecordRequest) (*models.InventoryRecord, error)
	Reserve(req StockChangeRequest, actor string) (*models.InventoryRecord, error)
	Release(req StockChangeRequest, actor string) (*models.InventoryRecord, error)
	Adjust(req AdjustStockRequest, actor string) (*models.InventoryRecord, error)
	GetStock(productID int64) (*models.InventoryRecord, error)
	LowStock() ([]models.InventoryRecord, error)
	OutOfStock() ([]models.InventoryRecord, error)
	ListMovements(filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	catalogRepo   repositories.CatalogRepository
	db            *sql.DB
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(ir repositories.InventoryRepository, cr repositories.CatalogRepository, db *sql.DB) InventoryService {
	return &inventoryService{inventoryRepo: ir, catalogRepo: cr, db: db}
}

func (s *inventoryService) CreateRecord(req CreateInventoryRecordRequest) (*models.InventoryRecord, error) {
	if req.Available < 0 || req.LowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: available and threshold must not be negative", ErrValidation)
	}
	if _, err := s.catalogRepo.GetProductByID(nil, req.ProductID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrCatalogItemNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("failed to fetch product for inventory record: %w", err)
	}

	record := &models.InventoryRecord{
		ProductID:         req.ProductID,
		Available:         req.Available,
		LowStockThreshold: req.LowStockThreshold,
	}
	if _, err := s.inventoryRepo.CreateRecord(s.db, record); err != nil {
		return nil, fmt.Errorf("failed to create inventory record: %w", err)
	}
	return record, nil
}

func (s *inventoryService) Reserve(req StockChangeRequest, actor string) (*models.InventoryRecord, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: reserve quantity must be positive", ErrValidation)
	}
	return s.applyChange(req.ProductID, -req.Quantity, models.MovementTypeReservation, actor,
		utils.NewNullString(req.Reference), nil)
}

// Release returns reserved units to the available pool. A release is only
// valid against outstanding reservations in the ledger; anything beyond that
// is an adjustment, not a release.
func (s *inventoryService) Release(req StockChangeRequest, actor string) (*models.InventoryRecord, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: release quantity must be positive", ErrInvalidMovement)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	outstanding, err := s.inventoryRepo.OutstandingReservations(tx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to check outstanding reservations: %w", err)
	}
	if req.Quantity > outstanding {
		return nil, fmt.Errorf("%w: releasing %d exceeds the %d outstanding reserved units for product ID %d",
			ErrInvalidMovement, req.Quantity, outstanding, req.ProductID)
	}

	if _, err := applyStockDelta(tx, s.inventoryRepo, req.ProductID, req.Quantity,
		models.MovementTypeRelease, actor, utils.NewNullString(req.Reference), nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock release: %w", err)
	}
	return s.GetStock(req.ProductID)
}

func (s *inventoryService) Adjust(req AdjustStockRequest, actor string) (*models.InventoryRecord, error) {
	if req.NewQuantity < 0 {
		return nil, fmt.Errorf("%w: adjusted quantity must not be negative", ErrValidation)
	}
	if req.Motive == "" {
		return nil, fmt.Errorf("%w: adjustment motive is required", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	record, err := s.inventoryRepo.GetRecordByProductID(tx, req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrInventoryRecordNotFound, req.ProductID)
		}
		return nil, fmt.Errorf("failed to fetch inventory record: %w", err)
	}

	delta := req.NewQuantity - record.Available
	if delta != 0 {
		if _, err := applyStockDelta(tx, s.inventoryRepo, req.ProductID, delta,
			models.MovementTypeAdjustment, actor, nil, utils.NewNullString(req.Motive)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return s.GetStock(req.ProductID)
}

func (s *inventoryService) GetStock(productID int64) (*models.InventoryRecord, error) {
	record, err := s.inventoryRepo.GetRecordByProductID(nil, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrInventoryRecordNotFound, productID)
		}
		return nil, fmt.Errorf("failed to fetch inventory record: %w", err)
	}
	return record, nil
}

// LowStock surfaces records at or below their threshold. Pure read; a breach
// never blocks a sale unless the quantity would actually go negative.
func (s *inventoryService) LowStock() ([]models.InventoryRecord, error) {
	records, err := s.inventoryRepo.GetLowStock()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch low stock records: %w", err)
	}
	return records, nil
}

func (s *inventoryService) OutOfStock() ([]models.InventoryRecord, error) {
	records, err := s.inventoryRepo.GetOutOfStock()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch out of stock records: %w", err)
	}
	return records, nil
}

func (s *inventoryService) ListMovements(filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	movements, totalCount, err := s.inventoryRepo.GetMovements(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch inventory movements: %w", err)
	}
	return movements, totalCount, nil
}

func (s *inventoryService) applyChange(productID int64, delta int, movementType models.MovementType, actor string, reference, reason *string) (*models.InventoryRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := applyStockDelta(tx, s.inventoryRepo, productID, delta, movementType, actor, reference, reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock change: %w", err)
	}
	return s.GetStock(productID)
}

// applyStockDelta is the single write path of the ledger: one guarded update
// on the record plus one movement carrying the before/after quantities. It is
// shared with the order engine, which calls it inside its own transactions.
func applyStockDelta(executor repositories.SQLExecutor, inventoryRepo repositories.InventoryRepository,
	productID int64, delta int, movementType models.MovementType, actor string, reference, reason *string,
) (*models.InventoryMovement, error) {
	newAvailable, err := inventoryRepo.ApplyDelta(executor, productID, delta)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrInventoryRecordNotFound, productID)
		}
		if errors.Is(err, repositories.ErrStockGuard) {
			return nil, fmt.Errorf("%w: product ID %d, requested %d", ErrInsufficientStock, productID, -delta)
		}
		return nil, fmt.Errorf("failed to apply stock delta for product ID %d: %w", productID, err)
	}

	movement := &models.InventoryMovement{
		ProductID:      productID,
		MovementType:   movementType,
		QuantityDelta:  delta,
		QuantityBefore: newAvailable - delta,
		QuantityAfter:  newAvailable,
		Actor:          actor,
		Reference:      reference,
		Reason:         reason,
	}
	if _, err := inventoryRepo.AppendMovement(executor, movement); err != nil {
		return nil, fmt.Errorf("failed to record inventory movement for product ID %d: %w", productID, err)
	}
	return movement, nil
}
