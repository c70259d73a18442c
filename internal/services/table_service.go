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

// CreateTableRequest is used for registering a new table at setup time.
type CreateTableRequest struct {
	Name     string  `json:"name" binding:"required"`
	Capacity int     `json:"capacity" binding:"required,gt=0"`
	Zone     *string `json:"zone"`
}

// UpdateTableRequest is used for editing a table's setup attributes.
type UpdateTableRequest struct {
	Name     string  `json:"name" binding:"required"`
	Capacity int     `json:"capacity" binding:"required,gt=0"`
	Zone     *string `json:"zone"`
}

// TransitionTableRequest carries the optional motive for reserve/maintenance.
type TransitionTableRequest struct {
	Motive string `json:"motive"`
}

// --- TableService interface ---

// TableService owns the occupancy state machine of every physical table.
// Occupy/free side effects of the order and invoice engines go through the
// table repository inside those engines' transactions; this service covers
// the collaborator-facing operations.
type TableService interface {
	CreateTable(req CreateTableRequest) (*models.RestaurantTable, error)
	UpdateTable(tableID int64, req UpdateTableRequest) (*models.RestaurantTable, error)
	DeactivateTable(tableID int64) error
	GetTable(tableID int64) (*models.RestaurantTable, error)
	ListTables(filters models.TableFilters) ([]models.RestaurantTable, error)

	Occupy(tableID int64) (*models.RestaurantTable, error)
	Free(tableID int64) (*models.RestaurantTable, error)
	Reserve(tableID int64, motive string) (*models.RestaurantTable, error)
	MarkMaintenance(tableID int64, motive string) (*models.RestaurantTable, error)
	CompleteMaintenance(tableID int64) (*models.RestaurantTable, error)
}

type tableService struct {
	tableRepo repositories.TableRepository
	db        *sql.DB
}

// NewTableService creates a new instance of TableService.
func NewTableService(tr repositories.TableRepository, db *sql.DB) TableService {
	return &tableService{tableRepo: tr, db: db}
}

func (s *tableService) CreateTable(req CreateTableRequest) (*models.RestaurantTable, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: table name cannot be empty", ErrValidation)
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: table capacity must be positive", ErrValidation)
	}
	table := &models.RestaurantTable{
		Name:     req.Name,
		Capacity: req.Capacity,
		Zone:     req.Zone,
		Status:   models.TableStatusFree,
	}
	if _, err := s.tableRepo.CreateTable(s.db, table); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return table, nil
}

func (s *tableService) UpdateTable(tableID int64, req UpdateTableRequest) (*models.RestaurantTable, error) {
	table, err := s.tableRepo.GetTableByID(nil, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to fetch table for update: %w", err)
	}
	table.Name = req.Name
	table.Capacity = req.Capacity
	table.Zone = req.Zone
	if err := s.tableRepo.UpdateTable(s.db, table); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to update table: %w", err)
	}
	return s.tableRepo.GetTableByID(nil, tableID)
}

func (s *tableService) DeactivateTable(tableID int64) error {
	table, err := s.tableRepo.GetTableByID(nil, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("failed to fetch table for deactivation: %w", err)
	}
	if table.Status != models.TableStatusFree {
		return fmt.Errorf("%w: table %d is %s, only free tables can be deactivated", ErrInvalidTransition, tableID, table.Status)
	}
	if err := s.tableRepo.DeactivateTable(s.db, tableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("failed to deactivate table: %w", err)
	}
	return nil
}

func (s *tableService) GetTable(tableID int64) (*models.RestaurantTable, error) {
	table, err := s.tableRepo.GetTableByID(nil, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to fetch table: %w", err)
	}
	return table, nil
}

func (s *tableService) ListTables(filters models.TableFilters) ([]models.RestaurantTable, error) {
	tables, err := s.tableRepo.GetTables(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func (s *tableService) Occupy(tableID int64) (*models.RestaurantTable, error) {
	return s.transition(tableID, []models.TableStatus{models.TableStatusFree, models.TableStatusReserved},
		models.TableStatusOccupied, nil)
}

// Free is idempotent from free and moves occupied/reserved tables back to
// free. A table under maintenance must go through CompleteMaintenance.
func (s *tableService) Free(tableID int64) (*models.RestaurantTable, error) {
	table, err := s.GetTable(tableID)
	if err != nil {
		return nil, err
	}
	if table.Status == models.TableStatusFree {
		return table, nil
	}
	if table.Status == models.TableStatusMaintenance {
		return nil, fmt.Errorf("%w: table %d is under maintenance, complete maintenance first", ErrInvalidTransition, tableID)
	}
	return s.transition(tableID, []models.TableStatus{models.TableStatusOccupied, models.TableStatusReserved},
		models.TableStatusFree, nil)
}

func (s *tableService) Reserve(tableID int64, motive string) (*models.RestaurantTable, error) {
	return s.transition(tableID, []models.TableStatus{models.TableStatusFree},
		models.TableStatusReserved, utils.NewNullString(motive))
}

func (s *tableService) MarkMaintenance(tableID int64, motive string) (*models.RestaurantTable, error) {
	return s.transition(tableID, []models.TableStatus{models.TableStatusFree},
		models.TableStatusMaintenance, utils.NewNullString(motive))
}

func (s *tableService) CompleteMaintenance(tableID int64) (*models.RestaurantTable, error) {
	return s.transition(tableID, []models.TableStatus{models.TableStatusMaintenance},
		models.TableStatusFree, nil)
}

// transition performs a guarded status change. The repository update matches
// only rows in one of the allowed source states, so concurrent transitions
// race on the row and the loser gets an invalid-transition error here.
func (s *tableService) transition(tableID int64, from []models.TableStatus, to models.TableStatus, motive *string) (*models.RestaurantTable, error) {
	err := s.tableRepo.TransitionStatus(s.db, tableID, from, to, motive)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			table, getErr := s.tableRepo.GetTableByID(nil, tableID)
			if getErr != nil {
				if errors.Is(getErr, repositories.ErrNotFound) {
					return nil, ErrTableNotFound
				}
				return nil, fmt.Errorf("failed to fetch table after rejected transition: %w", getErr)
			}
			return nil, fmt.Errorf("%w: table %d is %s, cannot become %s", ErrInvalidTransition, tableID, table.Status, to)
		}
		return nil, fmt.Errorf("failed to transition table %d to %s: %w", tableID, to, err)
	}
	return s.tableRepo.GetTableByID(nil, tableID)
}
