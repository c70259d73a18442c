package handlers

import (
	"net/http"

	"resto_backend/internal/models"
	"resto_backend/internal/services"
	"resto_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler exposes the table registry and its occupancy transitions.
type TableHandler struct {
	tableService services.TableService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{tableService: ts}
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	table, err := h.tableService.CreateTable(req)
	if err != nil {
		handleServiceError(c, err, "CreateTable")
		return
	}
	c.JSON(http.StatusCreated, table)
}

func (h *TableHandler) UpdateTable(c *gin.Context) {
	tableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	table, err := h.tableService.UpdateTable(tableID, req)
	if err != nil {
		handleServiceError(c, err, "UpdateTable")
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *TableHandler) DeactivateTable(c *gin.Context) {
	tableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.tableService.DeactivateTable(tableID); err != nil {
		handleServiceError(c, err, "DeactivateTable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deactivated successfully"})
}

func (h *TableHandler) GetTableByID(c *gin.Context) {
	tableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	table, err := h.tableService.GetTable(tableID)
	if err != nil {
		handleServiceError(c, err, "GetTableByID")
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *TableHandler) GetTables(c *gin.Context) {
	var filters models.TableFilters
	if status := c.Query("status"); status != "" {
		if !models.IsValidTableStatus(status) {
			utils.RespondValidationFailed(c, "unknown table status "+status)
			return
		}
		filters.Status = &status
	}
	if zone := c.Query("zone"); zone != "" {
		filters.Zone = &zone
	}
	tables, err := h.tableService.ListTables(filters)
	if err != nil {
		handleServiceError(c, err, "GetTables")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

func (h *TableHandler) OccupyTable(c *gin.Context) {
	h.transition(c, "OccupyTable", func(tableID int64, _ string) (*models.RestaurantTable, error) {
		return h.tableService.Occupy(tableID)
	})
}

func (h *TableHandler) FreeTable(c *gin.Context) {
	h.transition(c, "FreeTable", func(tableID int64, _ string) (*models.RestaurantTable, error) {
		return h.tableService.Free(tableID)
	})
}

func (h *TableHandler) ReserveTable(c *gin.Context) {
	h.transition(c, "ReserveTable", h.tableService.Reserve)
}

func (h *TableHandler) MarkMaintenance(c *gin.Context) {
	h.transition(c, "MarkMaintenance", h.tableService.MarkMaintenance)
}

func (h *TableHandler) CompleteMaintenance(c *gin.Context) {
	h.transition(c, "CompleteMaintenance", func(tableID int64, _ string) (*models.RestaurantTable, error) {
		return h.tableService.CompleteMaintenance(tableID)
	})
}

func (h *TableHandler) transition(c *gin.Context, operation string, fn func(int64, string) (*models.RestaurantTable, error)) {
	tableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.TransitionTableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
	}
	table, err := fn(tableID, req.Motive)
	if err != nil {
		handleServiceError(c, err, operation)
		return
	}
	c.JSON(http.StatusOK, table)
}
