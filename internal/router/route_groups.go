package router

import (
	"resto_backend/internal/handlers"
	"resto_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTableRoutes registers routes for the table registry and transitions.
func SetupTableRoutes(rg *gin.RouterGroup, h *handlers.TableHandler) {
	tables := rg.Group("/tables")
	{
		tables.POST("", middleware.RoleAuthMiddleware("admin", "manager"), h.CreateTable)
		tables.GET("", h.GetTables)
		tables.GET("/:id", h.GetTableByID)
		tables.PUT("/:id", middleware.RoleAuthMiddleware("admin", "manager"), h.UpdateTable)
		tables.DELETE("/:id", middleware.RoleAuthMiddleware("admin", "manager"), h.DeactivateTable)

		tables.POST("/:id/occupy", h.OccupyTable)
		tables.POST("/:id/free", h.FreeTable)
		tables.POST("/:id/reserve", h.ReserveTable)
		tables.POST("/:id/maintenance", middleware.RoleAuthMiddleware("admin", "manager"), h.MarkMaintenance)
		tables.POST("/:id/maintenance/complete", middleware.RoleAuthMiddleware("admin", "manager"), h.CompleteMaintenance)
	}
}

// SetupCatalogRoutes registers product and combo management routes.
func SetupCatalogRoutes(rg *gin.RouterGroup, h *handlers.CatalogHandler) {
	products := rg.Group("/products")
	{
		products.POST("", middleware.RoleAuthMiddleware("admin", "manager"), h.CreateProduct)
		products.GET("", h.GetProducts)
		products.GET("/:id", h.GetProductByID)
		products.PUT("/:id", middleware.RoleAuthMiddleware("admin", "manager"), h.UpdateProduct)
	}
	combos := rg.Group("/combos")
	{
		combos.POST("", middleware.RoleAuthMiddleware("admin", "manager"), h.CreateCombo)
		combos.GET("", h.GetCombos)
		combos.GET("/:id", h.GetComboByID)
	}
}

// SetupInventoryRoutes registers stock ledger routes.
func SetupInventoryRoutes(rg *gin.RouterGroup, h *handlers.InventoryHandler) {
	inventory := rg.Group("/inventory")
	{
		inventory.POST("/records", middleware.RoleAuthMiddleware("admin", "manager"), h.CreateRecord)
		inventory.POST("/reserve", h.ReserveStock)
		inventory.POST("/release", h.ReleaseStock)
		inventory.POST("/adjust", middleware.RoleAuthMiddleware("admin", "manager"), h.AdjustStock)
		inventory.GET("/stock/:product_id", h.GetStock)
		inventory.GET("/low-stock", h.GetLowStock)
		inventory.GET("/out-of-stock", h.GetOutOfStock)
		inventory.GET("/movements", h.GetMovements)
	}
}

// SetupOrderRoutes registers order lifecycle routes.
func SetupOrderRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.GetOrders)
		orders.GET("/:id", h.GetOrderByID)
		orders.POST("/:id/items", h.AddItem)
		orders.PUT("/:id/items/:item_id", h.UpdateItemQuantity)
		orders.DELETE("/:id/items/:item_id", h.RemoveItem)
		orders.POST("/:id/advance", h.AdvanceStatus)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}

// SetupInvoiceRoutes registers invoice issuance and settlement routes.
func SetupInvoiceRoutes(rg *gin.RouterGroup, h *handlers.InvoiceHandler) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/split", h.SplitInvoice)
		invoices.GET("", h.GetInvoices)
		invoices.GET("/:id", h.GetInvoiceByID)
		invoices.POST("/:id/pay", h.MarkPaid)
		invoices.POST("/:id/void", middleware.RoleAuthMiddleware("admin", "manager"), h.VoidInvoice)
	}
}

// SetupCustomerRoutes registers customer directory routes.
func SetupCustomerRoutes(rg *gin.RouterGroup, h *handlers.CustomerHandler) {
	customers := rg.Group("/customers")
	{
		customers.POST("", h.CreateCustomer)
		customers.GET("", h.GetCustomers)
		customers.GET("/:id", h.GetCustomerByID)
		customers.PUT("/:id", h.UpdateCustomer)
	}
}
