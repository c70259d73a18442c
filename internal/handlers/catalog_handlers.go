package handlers

import (
	"net/http"

	"resto_backend/internal/services"
	"resto_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes product and combo management.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	product, err := h.catalogService.CreateProduct(req)
	if err != nil {
		handleServiceError(c, err, "CreateProduct")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	product, err := h.catalogService.UpdateProduct(productID, req)
	if err != nil {
		handleServiceError(c, err, "UpdateProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(productID)
	if err != nil {
		handleServiceError(c, err, "GetProductByID")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) GetProducts(c *gin.Context) {
	onlyActive := c.Query("only_active") == "true"
	products, err := h.catalogService.ListProducts(onlyActive)
	if err != nil {
		handleServiceError(c, err, "GetProducts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (h *CatalogHandler) CreateCombo(c *gin.Context) {
	var req services.CreateComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	combo, err := h.catalogService.CreateCombo(req)
	if err != nil {
		handleServiceError(c, err, "CreateCombo")
		return
	}
	c.JSON(http.StatusCreated, combo)
}

func (h *CatalogHandler) GetComboByID(c *gin.Context) {
	comboID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	combo, err := h.catalogService.GetCombo(comboID)
	if err != nil {
		handleServiceError(c, err, "GetComboByID")
		return
	}
	c.JSON(http.StatusOK, combo)
}

func (h *CatalogHandler) GetCombos(c *gin.Context) {
	onlyActive := c.Query("only_active") == "true"
	combos, err := h.catalogService.ListCombos(onlyActive)
	if err != nil {
		handleServiceError(c, err, "GetCombos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": combos})
}
