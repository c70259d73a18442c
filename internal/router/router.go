package router

import (
	"database/sql"

	"resto_backend/internal/handlers"
	"resto_backend/internal/middleware"
	"resto_backend/internal/repositories"
	"resto_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers and registers all routes.
func Setup(engine *gin.Engine, db *sql.DB, policy services.InvoicePolicy) {
	tableRepo := repositories.NewTableRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	sequenceRepo := repositories.NewSequenceRepository(db)

	sequenceService := services.NewSequenceService(sequenceRepo)
	tableService := services.NewTableService(tableRepo, db)
	catalogService := services.NewCatalogService(catalogRepo, db)
	inventoryService := services.NewInventoryService(inventoryRepo, catalogRepo, db)
	orderService := services.NewOrderService(orderRepo, tableRepo, catalogRepo, inventoryRepo, sequenceService, db)
	invoiceService := services.NewInvoiceService(invoiceRepo, orderRepo, tableRepo, sequenceService, policy, db)
	customerService := services.NewCustomerService(customerRepo, db)

	tableHandler := handlers.NewTableHandler(tableService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	orderHandler := handlers.NewOrderHandler(orderService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	customerHandler := handlers.NewCustomerHandler(customerService)

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupTableRoutes(authenticated, tableHandler)
		SetupCatalogRoutes(authenticated, catalogHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupInvoiceRoutes(authenticated, invoiceHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
	}
}
