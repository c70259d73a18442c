package handlers

import (
	"net/http"
	"strconv"

	"resto_backend/internal/models"
	"resto_backend/internal/services"
	"resto_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler exposes the stock ledger: reservations, releases, manual
// adjustments and the movement audit trail.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

func (h *InventoryHandler) CreateRecord(c *gin.Context) {
	var req services.CreateInventoryRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	record, err := h.inventoryService.CreateRecord(req)
	if err != nil {
		handleServiceError(c, err, "CreateInventoryRecord")
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *InventoryHandler) ReserveStock(c *gin.Context) {
	var req services.StockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	record, err := h.inventoryService.Reserve(req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "ReserveStock")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *InventoryHandler) ReleaseStock(c *gin.Context) {
	var req services.StockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	record, err := h.inventoryService.Release(req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "ReleaseStock")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	record, err := h.inventoryService.Adjust(req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "AdjustStock")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}
	record, err := h.inventoryService.GetStock(productID)
	if err != nil {
		handleServiceError(c, err, "GetStock")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	records, err := h.inventoryService.LowStock()
	if err != nil {
		handleServiceError(c, err, "GetLowStock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (h *InventoryHandler) GetOutOfStock(c *gin.Context) {
	records, err := h.inventoryService.OutOfStock()
	if err != nil {
		handleServiceError(c, err, "GetOutOfStock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (h *InventoryHandler) GetMovements(c *gin.Context) {
	var filters models.MovementFilters

	if productIDStr := c.Query("product_id"); productIDStr != "" {
		productID, err := strconv.ParseInt(productIDStr, 10, 64)
		if err != nil {
			utils.RespondValidationFailed(c, "invalid product_id format")
			return
		}
		filters.ProductID = &productID
	}
	if movementType := c.Query("movement_type"); movementType != "" {
		if !models.IsValidMovementType(movementType) {
			utils.RespondValidationFailed(c, "unknown movement type "+movementType)
			return
		}
		filters.MovementType = &movementType
	}
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters.Page = page
	filters.PageSize = pageSize

	movements, totalCount, err := h.inventoryService.ListMovements(filters)
	if err != nil {
		handleServiceError(c, err, "GetMovements")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      movements,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}
