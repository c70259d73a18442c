package handlers

import (
	"net/http"

	"resto_backend/internal/services"
	"resto_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CustomerHandler exposes the registered-customer directory.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	customer, err := h.customerService.CreateCustomer(req)
	if err != nil {
		handleServiceError(c, err, "CreateCustomer")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	customer, err := h.customerService.UpdateCustomer(customerID, req)
	if err != nil {
		handleServiceError(c, err, "UpdateCustomer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(customerID)
	if err != nil {
		handleServiceError(c, err, "GetCustomerByID")
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	customers, totalCount, err := h.customerService.ListCustomers(page, pageSize)
	if err != nil {
		handleServiceError(c, err, "GetCustomers")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      customers,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}
