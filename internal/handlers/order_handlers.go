package handlers

import (
	"net/http"
	"strconv"

	"resto_backend/internal/models"
	"resto_backend/internal/services"
	"resto_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler exposes the order lifecycle.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	order, err := h.orderService.CreateOrder(req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "CreateOrder")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		handleServiceError(c, err, "GetOrderByID")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters

	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		tableID, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondValidationFailed(c, "invalid table_id format")
			return
		}
		filters.TableID = &tableID
	}
	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		customerID, err := strconv.ParseInt(customerIDStr, 10, 64)
		if err != nil {
			utils.RespondValidationFailed(c, "invalid customer_id format")
			return
		}
		filters.CustomerID = &customerID
	}
	if status := c.Query("status"); status != "" {
		if !models.IsValidOrderStatus(status) {
			utils.RespondValidationFailed(c, "unknown order status "+status)
			return
		}
		filters.Status = &status
	}
	if orderType := c.Query("order_type"); orderType != "" {
		if !models.IsValidOrderType(orderType) {
			utils.RespondValidationFailed(c, "unknown order type "+orderType)
			return
		}
		filters.OrderType = &orderType
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters.Page = page
	filters.PageSize = pageSize

	orders, totalCount, err := h.orderService.GetOrders(filters)
	if err != nil {
		handleServiceError(c, err, "GetOrders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CreateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	order, err := h.orderService.AddItem(orderID, req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "AddItem")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}
	var req services.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	order, err := h.orderService.UpdateItemQuantity(orderID, itemID, req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "UpdateItemQuantity")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}
	order, err := h.orderService.RemoveItem(orderID, itemID, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "RemoveItem")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	order, err := h.orderService.AdvanceStatus(orderID, req)
	if err != nil {
		handleServiceError(c, err, "AdvanceStatus")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
	}
	order, err := h.orderService.Cancel(orderID, req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "CancelOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}
