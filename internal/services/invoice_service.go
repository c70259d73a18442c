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

// InvoicePolicy carries deployment-level switches for the invoice engine.
type InvoicePolicy struct {
	// AllowPending lets a whole-order invoice be issued before delivery
	// (counter-service style). Off by default: only delivered orders bill.
	AllowPending bool
}

// --- DTOs ---

// PayerRequest identifies who pays: a registered customer or an ad-hoc
// name/document pair. Both may be empty for an anonymous consumer.
type PayerRequest struct {
	CustomerID    *int64  `json:"customer_id"`
	PayerName     *string `json:"payer_name"`
	PayerDocument *string `json:"payer_document"`
}

// CreateInvoiceRequest issues a whole-order invoice. A present PaymentMethod
// settles it immediately; otherwise it is created pending.
type CreateInvoiceRequest struct {
	OrderID       int64           `json:"order_id" binding:"required"`
	Payer         PayerRequest    `json:"payer"`
	Discount      decimal.Decimal `json:"discount"`
	Tip           decimal.Decimal `json:"tip"`
	PaymentMethod *string         `json:"payment_method"`
	Notes         *string         `json:"notes"`
}

// SplitPartitionRequest is one payer's share of a split order.
type SplitPartitionRequest struct {
	Payer        PayerRequest    `json:"payer"`
	OrderItemIDs []int64         `json:"order_item_ids" binding:"required"`
	Discount     decimal.Decimal `json:"discount"`
	Tip          decimal.Decimal `json:"tip"`
	Notes        *string         `json:"notes"`
}

// SplitInvoiceRequest partitions a delivered order into several pending
// invoices, one per payer.
type SplitInvoiceRequest struct {
	OrderID    int64                   `json:"order_id" binding:"required"`
	Partitions []SplitPartitionRequest `json:"partitions" binding:"required,dive"`
}

// PayInvoiceRequest settles a pending invoice.
type PayInvoiceRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// VoidInvoiceRequest cancels a pending invoice.
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- InvoiceService interface ---

// InvoiceService turns orders into billing documents and drives the paid/void
// lifecycle. It is the only writer of the order statuses invoiced and
// partially_invoiced, and it frees the table once every share is settled.
type InvoiceService interface {
	CreateInvoice(req CreateInvoiceRequest, actor string) (*models.Invoice, error)
	SplitInvoice(req SplitInvoiceRequest, actor string) ([]models.Invoice, error)
	MarkPaid(invoiceID int64, req PayInvoiceRequest) (*models.Invoice, error)
	Void(invoiceID int64, req VoidInvoiceRequest) (*models.Invoice, error)
	GetInvoiceByID(invoiceID int64) (*models.Invoice, error)
	GetInvoices(filters models.InvoiceFilters) ([]models.Invoice, int, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	orderRepo   repositories.OrderRepository
	tableRepo   repositories.TableRepository
	sequences   SequenceService
	policy      InvoicePolicy
	db          *sql.DB
}

// NewInvoiceService creates a new instance of InvoiceService.
func NewInvoiceService(
	ir repositories.InvoiceRepository,
	or repositories.OrderRepository,
	tr repositories.TableRepository,
	seq SequenceService,
	policy InvoicePolicy,
	db *sql.DB,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: ir,
		orderRepo:   or,
		tableRepo:   tr,
		sequences:   seq,
		policy:      policy,
		db:          db,
	}
}

func (s *invoiceService) CreateInvoice(req CreateInvoiceRequest, actor string) (*models.Invoice, error) {
	if req.Discount.IsNegative() || req.Tip.IsNegative() {
		return nil, fmt.Errorf("%w: discount and tip must not be negative", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockOrder(tx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkInvoiceable(order); err != nil {
		return nil, err
	}

	existing, err := s.invoiceRepo.GetInvoicesByOrderID(tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invoices: %w", err)
	}
	for _, inv := range existing {
		if inv.Status != models.InvoiceStatusVoided {
			return nil, fmt.Errorf("%w: order %s already has invoice %s", ErrInvalidTransition, order.Number, inv.Number)
		}
	}

	total := order.Total.Sub(req.Discount).Add(req.Tip).Round(2)
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: discount exceeds the order total", ErrValidation)
	}

	number, err := s.sequences.Next(tx, models.SequenceKindInvoice, time.Now())
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		Number:        number,
		OrderID:       order.ID,
		CustomerID:    req.Payer.CustomerID,
		PayerName:     req.Payer.PayerName,
		PayerDocument: req.Payer.PayerDocument,
		Subtotal:      order.Subtotal,
		TaxTotal:      order.TaxTotal,
		Discount:      req.Discount,
		Tip:           req.Tip,
		Total:         total,
		Status:        models.InvoiceStatusPending,
		Notes:         req.Notes,
	}
	if req.PaymentMethod != nil && *req.PaymentMethod != "" {
		now := time.Now()
		invoice.Status = models.InvoiceStatusPaid
		invoice.PaymentMethod = req.PaymentMethod
		invoice.PaidAt = &now
	}

	invoiceID, err := s.invoiceRepo.CreateInvoice(tx, invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items for invoice: %w", err)
	}
	for i := range items {
		if err := s.assignItem(tx, invoiceID, items[i].ID); err != nil {
			return nil, err
		}
	}

	if invoice.Status == models.InvoiceStatusPaid {
		if err := s.finalizeOrder(tx, order); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invoice creation: %w", err)
	}
	return s.GetInvoiceByID(invoiceID)
}

func (s *invoiceService) SplitInvoice(req SplitInvoiceRequest, actor string) ([]models.Invoice, error) {
	if len(req.Partitions) < 2 {
		return nil, fmt.Errorf("%w: a split needs at least two partitions", ErrValidation)
	}
	for _, p := range req.Partitions {
		if p.Discount.IsNegative() || p.Tip.IsNegative() {
			return nil, fmt.Errorf("%w: discount and tip must not be negative", ErrValidation)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockOrder(tx, req.OrderID)
	if err != nil {
		return nil, err
	}
	// Splits always wait for delivery: shares are settled against what was
	// actually served.
	if order.Status != models.OrderStatusDelivered {
		return nil, fmt.Errorf("%w: order %s is %s, only delivered orders can be split", ErrInvalidTransition, order.Number, order.Status)
	}

	existing, err := s.invoiceRepo.GetInvoicesByOrderID(tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invoices: %w", err)
	}
	for _, inv := range existing {
		if inv.Status != models.InvoiceStatusVoided {
			return nil, fmt.Errorf("%w: order %s already has invoice %s", ErrInvalidTransition, order.Number, inv.Number)
		}
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items for split: %w", err)
	}
	itemsByID := make(map[int64]*models.OrderItem, len(items))
	for i := range items {
		itemsByID[items[i].ID] = &items[i]
	}

	partitions := make([][]int64, len(req.Partitions))
	for i, p := range req.Partitions {
		partitions[i] = p.OrderItemIDs
	}
	if err := ValidateSplitPartitions(itemKeys(itemsByID), partitions); err != nil {
		return nil, err
	}

	now := time.Now()
	created := make([]models.Invoice, 0, len(req.Partitions))
	for _, p := range req.Partitions {
		subtotal := decimal.Zero
		for _, itemID := range p.OrderItemIDs {
			subtotal = subtotal.Add(itemsByID[itemID].Subtotal)
		}
		subtotal = subtotal.Round(2)
		taxTotal := subtotal.Mul(TaxRate).Round(2)
		total := subtotal.Add(taxTotal).Sub(p.Discount).Add(p.Tip).Round(2)
		if total.IsNegative() {
			return nil, fmt.Errorf("%w: discount exceeds the partition amount", ErrValidation)
		}

		number, err := s.sequences.Next(tx, models.SequenceKindInvoice, now)
		if err != nil {
			return nil, err
		}
		invoice := models.Invoice{
			Number:        number,
			OrderID:       order.ID,
			CustomerID:    p.Payer.CustomerID,
			PayerName:     p.Payer.PayerName,
			PayerDocument: p.Payer.PayerDocument,
			Subtotal:      subtotal,
			TaxTotal:      taxTotal,
			Discount:      p.Discount,
			Tip:           p.Tip,
			Total:         total,
			Status:        models.InvoiceStatusPending,
			Notes:         p.Notes,
		}
		invoiceID, err := s.invoiceRepo.CreateInvoice(tx, &invoice)
		if err != nil {
			return nil, fmt.Errorf("failed to create split invoice: %w", err)
		}
		for _, itemID := range p.OrderItemIDs {
			if err := s.assignItem(tx, invoiceID, itemID); err != nil {
				return nil, err
			}
		}
		created = append(created, invoice)
	}

	if err := s.orderRepo.UpdateOrderStatus(tx, order.ID, models.OrderStatusPartiallyInvoiced, now); err != nil {
		return nil, fmt.Errorf("failed to mark order partially invoiced: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit split: %w", err)
	}

	result := make([]models.Invoice, 0, len(created))
	for _, inv := range created {
		full, err := s.GetInvoiceByID(inv.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, *full)
	}
	return result, nil
}

func (s *invoiceService) MarkPaid(invoiceID int64, req PayInvoiceRequest) (*models.Invoice, error) {
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	invoice, err := s.lockInvoice(tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusPending {
		return nil, fmt.Errorf("%w: invoice %s is %s, only pending invoices can be paid", ErrInvalidTransition, invoice.Number, invoice.Status)
	}

	order, err := s.lockOrder(tx, invoice.OrderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaymentMethod = &req.PaymentMethod
	invoice.PaidAt = &now
	if err := s.invoiceRepo.UpdateInvoiceStatus(tx, invoice); err != nil {
		return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	settled, err := s.allSettled(tx, order.ID)
	if err != nil {
		return nil, err
	}
	if settled {
		if err := s.finalizeOrder(tx, order); err != nil {
			return nil, err
		}
	} else if order.Status != models.OrderStatusPartiallyInvoiced {
		if err := s.orderRepo.UpdateOrderStatus(tx, order.ID, models.OrderStatusPartiallyInvoiced, now); err != nil {
			return nil, fmt.Errorf("failed to mark order partially invoiced: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return s.GetInvoiceByID(invoiceID)
}

// Void cancels a pending invoice and rolls the order back to whatever its
// remaining invoices imply. Paid invoices never void; issue a correction
// instead.
func (s *invoiceService) Void(invoiceID int64, req VoidInvoiceRequest) (*models.Invoice, error) {
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: a void reason is required", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	invoice, err := s.lockInvoice(tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoiceStatusVoided {
		return invoice, nil
	}
	if invoice.Status != models.InvoiceStatusPending {
		return nil, fmt.Errorf("%w: invoice %s is %s, only pending invoices can be voided", ErrInvalidTransition, invoice.Number, invoice.Status)
	}

	order, err := s.lockOrder(tx, invoice.OrderID)
	if err != nil {
		return nil, err
	}

	invoice.Status = models.InvoiceStatusVoided
	invoice.VoidReason = utils.NewNullString(req.Reason)
	if err := s.invoiceRepo.UpdateInvoiceStatus(tx, invoice); err != nil {
		return nil, fmt.Errorf("failed to void invoice: %w", err)
	}
	// Freeing the assignments returns the covered order items to the unbilled
	// pool, so they can be billed again on a later invoice.
	if err := s.invoiceRepo.DeleteInvoiceItems(tx, invoice.ID); err != nil {
		return nil, fmt.Errorf("failed to release voided invoice items: %w", err)
	}

	if err := s.rollbackOrderAfterVoid(tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit void: %w", err)
	}
	return s.GetInvoiceByID(invoiceID)
}

func (s *invoiceService) GetInvoiceByID(invoiceID int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceByID(nil, invoiceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by ID: %w", err)
	}
	items, err := s.invoiceRepo.GetInvoiceItems(nil, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice items: %w", err)
	}
	invoice.Items = items
	return invoice, nil
}

func (s *invoiceService) GetInvoices(filters models.InvoiceFilters) ([]models.Invoice, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	invoices, totalCount, err := s.invoiceRepo.GetInvoices(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get invoices: %w", err)
	}
	return invoices, totalCount, nil
}

// --- internals ---

func (s *invoiceService) lockOrder(tx repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderForUpdate(tx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return order, nil
}

func (s *invoiceService) lockInvoice(tx repositories.SQLExecutor, invoiceID int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceForUpdate(tx, invoiceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) checkInvoiceable(order *models.Order) error {
	switch order.Status {
	case models.OrderStatusDelivered:
		return nil
	case models.OrderStatusPending:
		if s.policy.AllowPending {
			return nil
		}
		return fmt.Errorf("%w: order %s has not been delivered yet", ErrInvalidTransition, order.Number)
	default:
		return fmt.Errorf("%w: order %s is %s, cannot be invoiced", ErrInvalidTransition, order.Number, order.Status)
	}
}

func (s *invoiceService) assignItem(tx repositories.SQLExecutor, invoiceID, orderItemID int64) error {
	_, err := s.invoiceRepo.CreateInvoiceItem(tx, &models.InvoiceItem{InvoiceID: invoiceID, OrderItemID: orderItemID})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: order item %d", ErrDuplicateAssignment, orderItemID)
		}
		return fmt.Errorf("failed to assign order item %d to invoice: %w", orderItemID, err)
	}
	return nil
}

// allSettled reports whether every non-voided invoice of the order is paid
// and together they cover every order item. Voided invoices give their items
// back, so an order with a voided partition stays open until those items are
// billed and paid again.
func (s *invoiceService) allSettled(tx repositories.SQLExecutor, orderID int64) (bool, error) {
	invoices, err := s.invoiceRepo.GetInvoicesByOrderID(tx, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch invoices for settlement check: %w", err)
	}
	anyLive := false
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusVoided {
			continue
		}
		anyLive = true
		if inv.Status != models.InvoiceStatusPaid {
			return false, nil
		}
	}
	if !anyLive {
		return false, nil
	}
	unbilled, err := s.invoiceRepo.CountUnbilledItems(tx, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to check item coverage for settlement: %w", err)
	}
	return unbilled == 0, nil
}

// finalizeOrder marks the order invoiced and frees its table unless another
// active order still holds it.
func (s *invoiceService) finalizeOrder(tx repositories.SQLExecutor, order *models.Order) error {
	if err := s.orderRepo.UpdateOrderStatus(tx, order.ID, models.OrderStatusInvoiced, time.Now()); err != nil {
		return fmt.Errorf("failed to mark order invoiced: %w", err)
	}
	if order.TableID == nil {
		return nil
	}
	active, err := s.orderRepo.CountActiveOrdersForTable(tx, *order.TableID, order.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return nil
	}
	err = s.tableRepo.TransitionStatus(tx, *order.TableID,
		[]models.TableStatus{models.TableStatusOccupied}, models.TableStatusFree, nil)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to free table %d: %w", *order.TableID, err)
	}
	return nil
}

// rollbackOrderAfterVoid recomputes the order status from its surviving
// invoices: any paid share keeps it partially_invoiced, none reverts it to
// delivered. The table is re-occupied if the order became active again.
func (s *invoiceService) rollbackOrderAfterVoid(tx repositories.SQLExecutor, order *models.Order) error {
	invoices, err := s.invoiceRepo.GetInvoicesByOrderID(tx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch invoices after void: %w", err)
	}
	anyPaid := false
	anyLive := false
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusVoided {
			continue
		}
		anyLive = true
		if inv.Status == models.InvoiceStatusPaid {
			anyPaid = true
		}
	}

	next := models.OrderStatusDelivered
	if anyPaid || anyLive {
		next = models.OrderStatusPartiallyInvoiced
	}
	if order.Status == models.OrderStatusInvoiced || order.Status == models.OrderStatusPartiallyInvoiced ||
		order.Status == models.OrderStatusDelivered {
		if order.Status != next {
			if err := s.orderRepo.UpdateOrderStatus(tx, order.ID, next, time.Now()); err != nil {
				return fmt.Errorf("failed to roll back order status after void: %w", err)
			}
		}
	}

	if order.TableID != nil {
		err := s.tableRepo.TransitionStatus(tx, *order.TableID,
			[]models.TableStatus{models.TableStatusFree}, models.TableStatusOccupied, nil)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to re-occupy table %d: %w", *order.TableID, err)
		}
	}
	return nil
}

// ValidateSplitPartitions checks that the partition lists cover every order
// item exactly once. orderItemIDs is the full set of item IDs on the order.
func ValidateSplitPartitions(orderItemIDs []int64, partitions [][]int64) error {
	known := make(map[int64]bool, len(orderItemIDs))
	for _, id := range orderItemIDs {
		known[id] = false
	}
	for _, partition := range partitions {
		if len(partition) == 0 {
			return fmt.Errorf("%w: empty partition", ErrValidation)
		}
		for _, itemID := range partition {
			seen, ok := known[itemID]
			if !ok {
				return fmt.Errorf("%w: order item %d does not belong to this order", ErrValidation, itemID)
			}
			if seen {
				return fmt.Errorf("%w: order item %d", ErrDuplicateAssignment, itemID)
			}
			known[itemID] = true
		}
	}
	for itemID, seen := range known {
		if !seen {
			return fmt.Errorf("%w: order item %d is unassigned", ErrIncompleteSplit, itemID)
		}
	}
	return nil
}

func itemKeys(items map[int64]*models.OrderItem) []int64 {
	keys := make([]int64, 0, len(items))
	for id := range items {
		keys = append(keys, id)
	}
	return keys
}
