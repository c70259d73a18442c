package handlers

import (
	"net/http"
	"strconv"

	"resto_backend/internal/models"
	"resto_backend/internal/services"
	"resto_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler exposes invoice issuance, split billing and settlement.
type InvoiceHandler struct {
	invoiceService services.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(is services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: is}
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req services.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	invoice, err := h.invoiceService.CreateInvoice(req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "CreateInvoice")
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) SplitInvoice(c *gin.Context) {
	var req services.SplitInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	invoices, err := h.invoiceService.SplitInvoice(req, actorFrom(c))
	if err != nil {
		handleServiceError(c, err, "SplitInvoice")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": invoices})
}

func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	invoice, err := h.invoiceService.MarkPaid(invoiceID, req)
	if err != nil {
		handleServiceError(c, err, "MarkPaid")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) VoidInvoice(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	invoice, err := h.invoiceService.Void(invoiceID, req)
	if err != nil {
		handleServiceError(c, err, "VoidInvoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetInvoiceByID(invoiceID)
	if err != nil {
		handleServiceError(c, err, "GetInvoiceByID")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	var filters models.InvoiceFilters

	if orderIDStr := c.Query("order_id"); orderIDStr != "" {
		orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
		if err != nil {
			utils.RespondValidationFailed(c, "invalid order_id format")
			return
		}
		filters.OrderID = &orderID
	}
	if status := c.Query("status"); status != "" {
		if !models.IsValidInvoiceStatus(status) {
			utils.RespondValidationFailed(c, "unknown invoice status "+status)
			return
		}
		filters.Status = &status
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

	invoices, totalCount, err := h.invoiceService.GetInvoices(filters)
	if err != nil {
		handleServiceError(c, err, "GetInvoices")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      invoices,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}
