package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resto_backend/internal/models"
	"resto_backend/internal/repositories"
	"resto_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// TaxRate is the fixed tax applied uniformly to order subtotals (18%).
var TaxRate = decimal.New(18, -2)

// --- DTOs ---

// CreateOrderItemRequest is used for creating individual order items.
// Exactly one of ProductID/ComboID must be set.
type CreateOrderItemRequest struct {
	ProductID *int64          `json:"product_id"`
	ComboID   *int64          `json:"combo_id"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	Discount  decimal.Decimal `json:"discount"`
	Notes     string          `json:"notes"`
}

// CreateOrderRequest is used for creating a new order.
type CreateOrderRequest struct {
	TableID    *int64                   `json:"table_id"`
	CustomerID *int64                   `json:"customer_id"`
	OrderType  string                   `json:"order_type" binding:"required"`
	Notes      *string                  `json:"notes"`
	Items      []CreateOrderItemRequest `json:"items" binding:"required,dive"`
}

// UpdateQuantityRequest is used for changing a line item's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// AdvanceOrderRequest is used for moving an order along the kitchen progression.
type AdvanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// CancelOrderRequest carries the reason recorded on the stock-return movements.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// --- OrderService interface ---

// OrderService owns the order lifecycle and keeps the table registry and
// inventory ledger consistent with it. Every multi-entity mutation runs in a
// single transaction: stock movements, table state and order rows commit or
// roll back together.
type OrderService interface {
	CreateOrder(req CreateOrderRequest, actor string) (*models.Order, error)
	AddItem(orderID int64, req CreateOrderItemRequest, actor string) (*models.Order, error)
	UpdateItemQuantity(orderID, itemID int64, req UpdateQuantityRequest, actor string) (*models.Order, error)
	RemoveItem(orderID, itemID int64, actor string) (*models.Order, error)
	AdvanceStatus(orderID int64, req AdvanceOrderRequest) (*models.Order, error)
	Cancel(orderID int64, req CancelOrderRequest, actor string) (*models.Order, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
}

type orderService struct {
	orderRepo     repositories.OrderRepository
	tableRepo     repositories.TableRepository
	catalogRepo   repositories.CatalogRepository
	inventoryRepo repositories.InventoryRepository
	sequences     SequenceService
	db            *sql.DB
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	tr repositories.TableRepository,
	cr repositories.CatalogRepository,
	ir repositories.InventoryRepository,
	seq SequenceService,
	db *sql.DB,
) OrderService {
	return &orderService{
		orderRepo:     or,
		tableRepo:     tr,
		catalogRepo:   cr,
		inventoryRepo: ir,
		sequences:     seq,
		db:            db,
	}
}

// stockLine is one product-level stock requirement derived from an order item.
// A combo line expands into one stockLine per stocked component.
type stockLine struct {
	productID int64
	quantity  int
}

func (s *orderService) CreateOrder(req CreateOrderRequest, actor string) (*models.Order, error) {
	if !models.IsValidOrderType(req.OrderType) {
		return nil, fmt.Errorf("%w: unknown order type %q", ErrValidation, req.OrderType)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", ErrValidation)
	}
	if models.OrderType(req.OrderType) == models.OrderTypeDineIn && req.TableID == nil {
		return nil, fmt.Errorf("%w: dine-in orders need a table", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	number, err := s.sequences.Next(tx, models.SequenceKindOrder, time.Now())
	if err != nil {
		return nil, err
	}

	if req.TableID != nil {
		if err := s.occupyTable(tx, *req.TableID); err != nil {
			return nil, err
		}
	}

	itemsToCreate := make([]models.OrderItem, 0, len(req.Items))
	for _, itemReq := range req.Items {
		item, err := s.buildItem(tx, itemReq, number, actor)
		if err != nil {
			return nil, err
		}
		itemsToCreate = append(itemsToCreate, *item)
	}

	subtotal, tax, total := computeOrderTotals(itemsToCreate)
	order := models.Order{
		Number:     number,
		TableID:    req.TableID,
		CustomerID: req.CustomerID,
		CreatedBy:  actor,
		OrderType:  models.OrderType(req.OrderType),
		Status:     models.OrderStatusPending,
		Notes:      req.Notes,
		Subtotal:   subtotal,
		TaxTotal:   tax,
		Total:      total,
	}

	orderID, err := s.orderRepo.CreateOrder(tx, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}
	for i := range itemsToCreate {
		itemsToCreate[i].OrderID = orderID
		if _, err := s.orderRepo.CreateOrderItem(tx, &itemsToCreate[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) AddItem(orderID int64, req CreateOrderItemRequest, actor string) (*models.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockEditableOrder(tx, orderID)
	if err != nil {
		return nil, err
	}

	item, err := s.buildItem(tx, req, order.Number, actor)
	if err != nil {
		return nil, err
	}
	item.OrderID = orderID
	if _, err := s.orderRepo.CreateOrderItem(tx, item); err != nil {
		return nil, fmt.Errorf("failed to create order item: %w", err)
	}

	if err := s.refreshTotals(tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item addition: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) UpdateItemQuantity(orderID, itemID int64, req UpdateQuantityRequest, actor string) (*models.Order, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockEditableOrder(tx, orderID)
	if err != nil {
		return nil, err
	}
	item, err := s.lockOrderItem(tx, orderID, itemID)
	if err != nil {
		return nil, err
	}

	delta := req.Quantity - item.Quantity
	if delta != 0 {
		lines, err := s.stockLinesForItem(tx, item)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if err := s.moveStockForOrder(tx, line.productID, line.quantity*delta, order.Number, actor,
				"Order item quantity change"); err != nil {
				return nil, err
			}
		}
	}

	item.Quantity = req.Quantity
	item.Subtotal = lineSubtotal(item.UnitPrice, req.Quantity, item.Discount)
	if item.Subtotal.IsNegative() {
		return nil, fmt.Errorf("%w: discount exceeds the line amount", ErrValidation)
	}
	if err := s.orderRepo.UpdateOrderItemQuantity(tx, item); err != nil {
		return nil, fmt.Errorf("failed to update order item: %w", err)
	}

	if err := s.refreshTotals(tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit quantity update: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) RemoveItem(orderID, itemID int64, actor string) (*models.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockEditableOrder(tx, orderID)
	if err != nil {
		return nil, err
	}
	item, err := s.lockOrderItem(tx, orderID, itemID)
	if err != nil {
		return nil, err
	}

	lines, err := s.stockLinesForItem(tx, item)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := s.moveStockForOrder(tx, line.productID, line.quantity*item.Quantity, order.Number, actor,
			"Order item removed"); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.DeleteOrderItem(tx, itemID); err != nil {
		return nil, fmt.Errorf("failed to delete order item: %w", err)
	}

	if err := s.refreshTotals(tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item removal: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) AdvanceStatus(orderID int64, req AdvanceOrderRequest) (*models.Order, error) {
	if !models.IsValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, req.Status)
	}
	next := models.OrderStatus(req.Status)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockOrder(tx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanAdvanceOrder(order.Status, next) {
		return nil, fmt.Errorf("%w: order %s is %s, cannot advance to %s", ErrInvalidTransition, order.Number, order.Status, next)
	}
	if err := s.orderRepo.UpdateOrderStatus(tx, orderID, next, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status advance: %w", err)
	}
	return s.GetOrderByID(orderID)
}

// Cancel releases every reserved unit with inverse movements, frees the table
// when no other active order references it, and marks the order cancelled.
// Calling it on an already-cancelled order is a no-op. Once billing has
// started the order cannot cancel; its invoices must be voided first.
func (s *orderService) Cancel(orderID int64, req CancelOrderRequest, actor string) (*models.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockOrder(tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return order, nil
	}
	if order.Status == models.OrderStatusInvoiced || order.Status == models.OrderStatusPartiallyInvoiced {
		return nil, fmt.Errorf("%w: order %s is %s, void its invoices before cancelling", ErrInvalidTransition, order.Number, order.Status)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items for stock return: %w", err)
	}
	reason := "Order cancelled"
	if req.Reason != "" {
		reason = "Order cancelled: " + req.Reason
	}
	for i := range items {
		lines, err := s.stockLinesForItem(tx, &items[i])
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if _, err := applyStockDelta(tx, s.inventoryRepo, line.productID, line.quantity*items[i].Quantity,
				models.MovementTypeRelease, actor, &order.Number, utils.NewNullString(reason)); err != nil {
				return nil, err
			}
		}
	}

	if order.TableID != nil {
		if err := s.releaseTable(tx, *order.TableID, orderID); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.UpdateOrderStatus(tx, orderID, models.OrderStatusCancelled, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order cancellation: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(nil, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}
	items, err := s.orderRepo.GetOrderItemsByOrderID(nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	order.Items = items
	return order, nil
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

// --- internals ---

func (s *orderService) lockOrder(tx repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderForUpdate(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

func (s *orderService) lockEditableOrder(tx repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	order, err := s.lockOrder(tx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.IsOrderEditable(order.Status) {
		return nil, fmt.Errorf("%w: order %s is %s, items can only change while pending or in preparation",
			ErrInvalidTransition, order.Number, order.Status)
	}
	return order, nil
}

func (s *orderService) lockOrderItem(tx repositories.SQLExecutor, orderID, itemID int64) (*models.OrderItem, error) {
	item, err := s.orderRepo.GetOrderItemByID(tx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch order item: %w", err)
	}
	if item.OrderID != orderID {
		return nil, fmt.Errorf("%w: item %d does not belong to order %d", ErrOrderItemNotFound, itemID, orderID)
	}
	return item, nil
}

// occupyTable moves the table to occupied and enforces the single-active-order
// invariant inside the caller's transaction.
func (s *orderService) occupyTable(tx repositories.SQLExecutor, tableID int64) error {
	active, err := s.orderRepo.CountActiveOrdersForTable(tx, tableID, 0)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: table %d already has an active order", ErrInvalidTransition, tableID)
	}
	err = s.tableRepo.TransitionStatus(tx, tableID,
		[]models.TableStatus{models.TableStatusFree, models.TableStatusReserved}, models.TableStatusOccupied, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			if _, getErr := s.tableRepo.GetTableByID(tx, tableID); errors.Is(getErr, repositories.ErrNotFound) {
				return ErrTableNotFound
			}
			return fmt.Errorf("%w: table %d cannot be occupied", ErrInvalidTransition, tableID)
		}
		return fmt.Errorf("failed to occupy table %d: %w", tableID, err)
	}
	return nil
}

// releaseTable frees the table unless another active order still references it.
func (s *orderService) releaseTable(tx repositories.SQLExecutor, tableID, orderID int64) error {
	active, err := s.orderRepo.CountActiveOrdersForTable(tx, tableID, orderID)
	if err != nil {
		return err
	}
	if active > 0 {
		return nil
	}
	err = s.tableRepo.TransitionStatus(tx, tableID,
		[]models.TableStatus{models.TableStatusOccupied, models.TableStatusReserved}, models.TableStatusFree, nil)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to free table %d: %w", tableID, err)
	}
	// ErrNotFound here means the table is already free; nothing to do.
	return nil
}

// buildItem validates the item request, snapshots the unit price and reserves
// stock for the product or for every stocked combo component.
func (s *orderService) buildItem(tx repositories.SQLExecutor, req CreateOrderItemRequest, orderNumber, actor string) (*models.OrderItem, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if (req.ProductID == nil) == (req.ComboID == nil) {
		return nil, fmt.Errorf("%w: an item references exactly one product or combo", ErrValidation)
	}
	if req.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount must not be negative", ErrValidation)
	}

	item := &models.OrderItem{
		ProductID: req.ProductID,
		ComboID:   req.ComboID,
		Quantity:  req.Quantity,
		Discount:  req.Discount,
		Notes:     utils.NewNullString(req.Notes),
	}

	var lines []stockLine
	if req.ProductID != nil {
		product, err := s.catalogRepo.GetProductByID(tx, *req.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: product ID %d", ErrCatalogItemNotFound, *req.ProductID)
			}
			return nil, fmt.Errorf("failed to fetch product %d: %w", *req.ProductID, err)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: product %q is not available", ErrCatalogItemNotFound, product.Name)
		}
		item.UnitPrice = product.Price
		if product.TracksStock {
			lines = append(lines, stockLine{productID: product.ID, quantity: 1})
		}
	} else {
		combo, err := s.catalogRepo.GetComboByID(tx, *req.ComboID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: combo ID %d", ErrCatalogItemNotFound, *req.ComboID)
			}
			return nil, fmt.Errorf("failed to fetch combo %d: %w", *req.ComboID, err)
		}
		if !combo.IsActive {
			return nil, fmt.Errorf("%w: combo %q is not available", ErrCatalogItemNotFound, combo.Name)
		}
		item.UnitPrice = combo.Price
		for _, comp := range combo.Components {
			if comp.Product != nil && comp.Product.TracksStock {
				lines = append(lines, stockLine{productID: comp.ProductID, quantity: comp.Quantity})
			}
		}
	}

	item.Subtotal = lineSubtotal(item.UnitPrice, item.Quantity, item.Discount)
	if item.Subtotal.IsNegative() {
		return nil, fmt.Errorf("%w: discount exceeds the line amount", ErrValidation)
	}

	for _, line := range lines {
		if _, err := applyStockDelta(tx, s.inventoryRepo, line.productID, -line.quantity*req.Quantity,
			models.MovementTypeReservation, actor, &orderNumber, nil); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// stockLinesForItem re-derives the product-level stock requirements of an
// existing line, expanding combos into their stocked components.
func (s *orderService) stockLinesForItem(tx repositories.SQLExecutor, item *models.OrderItem) ([]stockLine, error) {
	if item.ProductID != nil {
		product, err := s.catalogRepo.GetProductByID(tx, *item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product %d for stock change: %w", *item.ProductID, err)
		}
		if !product.TracksStock {
			return nil, nil
		}
		return []stockLine{{productID: product.ID, quantity: 1}}, nil
	}

	combo, err := s.catalogRepo.GetComboByID(tx, *item.ComboID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch combo %d for stock change: %w", *item.ComboID, err)
	}
	var lines []stockLine
	for _, comp := range combo.Components {
		if comp.Product != nil && comp.Product.TracksStock {
			lines = append(lines, stockLine{productID: comp.ProductID, quantity: comp.Quantity})
		}
	}
	return lines, nil
}

// moveStockForOrder reserves (negative delta) or releases (positive delta)
// units on behalf of an order mutation.
func (s *orderService) moveStockForOrder(tx repositories.SQLExecutor, productID int64, delta int, orderNumber, actor, reason string) error {
	if delta == 0 {
		return nil
	}
	movementType := models.MovementTypeRelease
	if delta < 0 {
		movementType = models.MovementTypeReservation
	}
	_, err := applyStockDelta(tx, s.inventoryRepo, productID, delta, movementType, actor,
		&orderNumber, utils.NewNullString(reason))
	return err
}

// refreshTotals recomputes the cached totals from all current items and
// writes them back with the optimistic version check.
func (s *orderService) refreshTotals(tx repositories.SQLExecutor, order *models.Order) error {
	items, err := s.orderRepo.GetOrderItemsByOrderID(tx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch order items for totals: %w", err)
	}
	order.Subtotal, order.TaxTotal, order.Total = computeOrderTotals(items)
	if err := s.orderRepo.UpdateOrderTotals(tx, order, order.Version); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			return fmt.Errorf("%w: order %s was changed by another writer", ErrConcurrentModification, order.Number)
		}
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return nil
}

// lineSubtotal computes quantity x unit price - discount, rounded to cents.
func lineSubtotal(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount).Round(2)
}

// computeOrderTotals derives subtotal, tax and total from line items.
// Line discounts are already inside each subtotal, so tax applies after them.
func computeOrderTotals(items []models.OrderItem) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].Subtotal)
	}
	subtotal = subtotal.Round(2)
	tax = subtotal.Mul(TaxRate).Round(2)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}
