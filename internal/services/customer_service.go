package services

import (
	"database/sql"
	"errors"
	"fmt"

	"resto_backend/internal/models"
	"resto_backend/internal/repositories"
)

// CreateCustomerRequest is used for registering a customer.
type CreateCustomerRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
	Document    *string `json:"document"`
	Notes       *string `json:"notes"`
}

// CustomerService manages the registered-customer directory.
type CustomerService interface {
	CreateCustomer(req CreateCustomerRequest) (*models.Customer, error)
	UpdateCustomer(customerID int64, req CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(customerID int64) (*models.Customer, error)
	ListCustomers(page, pageSize int) ([]models.Customer, int, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	db           *sql.DB
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(cr repositories.CustomerRepository, db *sql.DB) CustomerService {
	return &customerService{customerRepo: cr, db: db}
}

func (s *customerService) CreateCustomer(req CreateCustomerRequest) (*models.Customer, error) {
	if req.FullName == "" {
		return nil, fmt.Errorf("%w: customer full name cannot be empty", ErrValidation)
	}
	customer := &models.Customer{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Document:    req.Document,
		Notes:       req.Notes,
	}
	if _, err := s.customerRepo.CreateCustomer(s.db, customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: a customer with this document already exists", ErrValidation)
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) UpdateCustomer(customerID int64, req CreateCustomerRequest) (*models.Customer, error) {
	customer, err := s.GetCustomer(customerID)
	if err != nil {
		return nil, err
	}
	customer.FullName = req.FullName
	customer.PhoneNumber = req.PhoneNumber
	customer.Document = req.Document
	customer.Notes = req.Notes
	if err := s.customerRepo.UpdateCustomer(s.db, customer); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return s.GetCustomer(customerID)
}

func (s *customerService) GetCustomer(customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(nil, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(page, pageSize int) ([]models.Customer, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	customers, totalCount, err := s.customerRepo.GetCustomers(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, totalCount, nil
}
