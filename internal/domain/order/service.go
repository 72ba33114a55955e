// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/domain/cart"
	"github.com/your-org/plantstore-backend/internal/domain/plant"
	"github.com/your-org/plantstore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// ConfirmOutcome is the externally supplied payment result
type ConfirmOutcome string

const (
	ConfirmOutcomeCompleted ConfirmOutcome = "completed"
	ConfirmOutcomeFailed    ConfirmOutcome = "failed"
)

// Notifier dispatches order lifecycle notifications. Implementations
// must be best-effort; the order manager never blocks on them.
type Notifier interface {
	OrderCreated(o *Order)
	OrderPaid(o *Order)
	PaymentFailed(o *Order)
}

// Service handles the order lifecycle
type Service struct {
	db       *gorm.DB
	config   *config.Config
	notifier Notifier
	log      *logrus.Logger
}

// NewService creates a new order service. notifier may be nil.
func NewService(db *gorm.DB, cfg *config.Config, notifier Notifier, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		db:       db,
		config:   cfg,
		notifier: notifier,
		log:      log,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	CustomerInfo    CustomerInfo    `json:"customer_info" binding:"required"`
	ShippingAddress ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod   PaymentMethod   `json:"payment_method" binding:"required"`
}

// OrderListRequest represents admin list query parameters
type OrderListRequest struct {
	Page      int         `form:"page,default=1"`
	Limit     int         `form:"limit,default=20"`
	Status    OrderStatus `form:"status"`
	SortBy    string      `form:"sort_by,default=created_at"`
	SortOrder string      `form:"sort_order,default=desc"`
}

// OrderListResponse represents orders with pagination
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreatePendingOrder freezes the cart snapshot into a new order in
// pending_payment state. This is the only operation that copies cart
// contents into order line items, and it reserves stock transactionally
// so concurrent checkouts cannot oversell.
func (s *Service) CreatePendingOrder(ctx context.Context, req *CreateOrderRequest, snapshot *cart.Snapshot) (*Order, error) {
	if snapshot == nil || len(snapshot.Items) == 0 {
		return nil, apperrors.EmptyCart("cart is empty")
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	// Compute totals from the snapshot, not from the live cart
	var subtotal int64
	for _, item := range snapshot.Items {
		if item.Quantity < 1 {
			return nil, apperrors.Validation("invalid quantity for plant %d", item.PlantID)
		}
		subtotal += item.UnitPrice * int64(item.Quantity)
	}
	shippingCost := s.ShippingCost(subtotal)

	now := time.Now().UTC()
	o := Order{
		SessionID:       snapshot.SessionID,
		CustomerInfo:    req.CustomerInfo,
		ShippingAddress: req.ShippingAddress,
		Status:          OrderStatusPendingPayment,
		PaymentStatus:   PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		Total:           subtotal + shippingCost,
	}

	// Provisional unique value; the real number needs the row ID
	o.OrderNumber = "TMP-" + uuid.New().String()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&o).Error; err != nil {
			return apperrors.Storage(err, "failed to create order")
		}

		o.OrderNumber = FormatOrderNumber(o.ID, now)
		if err := tx.Model(&o).Update("order_number", o.OrderNumber).Error; err != nil {
			return apperrors.Storage(err, "failed to assign order number")
		}

		for _, item := range snapshot.Items {
			// Reserve before recording the line; a failed reservation
			// rolls back the whole order
			if err := plant.Reserve(tx, item.PlantID, item.Quantity); err != nil {
				return err
			}

			orderItem := OrderItem{
				OrderID:   o.ID,
				PlantID:   item.PlantID,
				Name:      item.Name,
				ImageURL:  item.ImageURL,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: item.UnitPrice * int64(item.Quantity),
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return apperrors.Storage(err, "failed to create order item")
			}
			o.Items = append(o.Items, orderItem)
		}

		history := OrderStatusHistory{
			OrderID:   o.ID,
			Status:    OrderStatusPendingPayment,
			Comment:   "Order created, awaiting payment",
			CreatedBy: "system",
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Storage(err, "failed to record status history")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderCreated(&o)
	}

	return &o, nil
}

// ConfirmPayment applies the payment result to a pending order. The
// status flip is a guarded single-statement update so that concurrent
// confirmations of the same order cannot both win; the loser is told
// apart by reloading the order. A repeat confirmation of an already
// completed payment fails with AlreadyConfirmedError and re-runs no
// side effects.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uint, outcome ConfirmOutcome) (*Order, error) {
	var newStatus OrderStatus
	var newPayment PaymentStatus
	switch outcome {
	case ConfirmOutcomeCompleted:
		newStatus, newPayment = OrderStatusPaid, PaymentStatusCompleted
	case ConfirmOutcomeFailed:
		newStatus, newPayment = OrderStatusPaymentFailed, PaymentStatusFailed
	default:
		return nil, apperrors.Validation("unknown payment outcome %q", outcome)
	}

	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", orderID, OrderStatusPendingPayment).
		Updates(map[string]interface{}{
			"status":         newStatus,
			"payment_status": newPayment,
		})
	if result.Error != nil {
		return nil, apperrors.Storage(result.Error, "failed to update payment state for order %d", orderID)
	}

	if result.RowsAffected == 0 {
		current, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current.PaymentStatus == PaymentStatusCompleted {
			return nil, apperrors.AlreadyConfirmed("payment for order %s is already confirmed", current.OrderNumber)
		}
		return nil, apperrors.InvalidState("order %s is %s, not awaiting payment", current.OrderNumber, current.Status)
	}

	comment := "Payment confirmed"
	if outcome == ConfirmOutcomeFailed {
		comment = "Payment failed"
	}
	if err := s.recordHistory(ctx, orderID, newStatus, comment, "system"); err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Warn("failed to record status history")
	}

	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		switch outcome {
		case ConfirmOutcomeCompleted:
			s.notifier.OrderPaid(o)
		case ConfirmOutcomeFailed:
			s.notifier.PaymentFailed(o)
		}
	}

	return o, nil
}

// ReopenForPayment moves a payment_failed order back to pending_payment
// so a new payment attempt can run against the same order.
func (s *Service) ReopenForPayment(ctx context.Context, orderID uint) (*Order, error) {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", orderID, OrderStatusPaymentFailed).
		Updates(map[string]interface{}{
			"status":         OrderStatusPendingPayment,
			"payment_status": PaymentStatusPending,
		})
	if result.Error != nil {
		return nil, apperrors.Storage(result.Error, "failed to reopen order %d", orderID)
	}

	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 && o.Status != OrderStatusPendingPayment {
		return nil, apperrors.InvalidState("order %s is %s and cannot accept a new payment attempt", o.OrderNumber, o.Status)
	}
	if result.RowsAffected > 0 {
		if err := s.recordHistory(ctx, orderID, OrderStatusPendingPayment, "Payment retry opened", "system"); err != nil {
			s.log.WithError(err).WithField("order_id", orderID).Warn("failed to record status history")
		}
		o.Status = OrderStatusPendingPayment
		o.PaymentStatus = PaymentStatusPending
	}
	return o, nil
}

// TransitionStatus moves an order along the fulfillment state machine.
// Unreachable transitions are rejected.
func (s *Service) TransitionStatus(ctx context.Context, orderID uint, newStatus OrderStatus, comment, actor string) (*Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if newStatus == OrderStatusCancelled {
		return s.CancelOrder(ctx, orderID, comment, actor)
	}

	if !CanTransition(o.Status, newStatus) {
		return nil, apperrors.InvalidTransition("order %s cannot move from %s to %s", o.OrderNumber, o.Status, newStatus)
	}

	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", orderID, o.Status).
		Update("status", newStatus)
	if result.Error != nil {
		return nil, apperrors.Storage(result.Error, "failed to update status for order %d", orderID)
	}
	if result.RowsAffected == 0 {
		// Lost a race with a concurrent transition
		current, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransition("order %s cannot move from %s to %s", current.OrderNumber, current.Status, newStatus)
	}

	if err := s.recordHistory(ctx, orderID, newStatus, comment, actor); err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Warn("failed to record status history")
	}

	return s.GetOrder(ctx, orderID)
}

// CancelOrder cancels an order from any non-terminal state and returns
// its reserved stock. Refunds are handled outside this system.
func (s *Service) CancelOrder(ctx context.Context, orderID uint, reason, actor string) (*Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanBeCancelled() {
		return nil, apperrors.InvalidTransition("order %s is %s and cannot be cancelled", o.OrderNumber, o.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", orderID, o.Status).
			Update("status", OrderStatusCancelled)
		if result.Error != nil {
			return apperrors.Storage(result.Error, "failed to cancel order %d", orderID)
		}
		if result.RowsAffected == 0 {
			return apperrors.InvalidTransition("order %s changed state during cancellation", o.OrderNumber)
		}

		for _, item := range o.Items {
			if err := plant.Release(tx, item.PlantID, item.Quantity); err != nil {
				return err
			}
		}

		history := OrderStatusHistory{
			OrderID:   orderID,
			Status:    OrderStatusCancelled,
			Comment:   "Order cancelled: " + reason,
			CreatedBy: actor,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Storage(err, "failed to record status history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, orderID)
}

// GetOrder retrieves a single order by ID with items and history
func (s *Service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	var o Order
	result := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&o)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order %d not found", id)
		}
		return nil, apperrors.Storage(result.Error, "failed to retrieve order %d", id)
	}

	return &o, nil
}

// GetOrderByNumber retrieves a single order by its order number
func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var o Order
	result := s.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&o)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order %s not found", orderNumber)
		}
		return nil, apperrors.Storage(result.Error, "failed to retrieve order %s", orderNumber)
	}

	return &o, nil
}

// List retrieves orders with status filtering and pagination for the
// admin back office.
func (s *Service) List(ctx context.Context, req *OrderListRequest) (*OrderListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{}).Preload("Items")
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Storage(err, "failed to count orders")
	}

	sortBy := req.SortBy
	switch sortBy {
	case "created_at", "updated_at", "total", "status", "order_number":
	default:
		sortBy = "created_at"
	}
	sortOrder := req.SortOrder
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	if err := query.Order(sortBy + " " + sortOrder).Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, apperrors.Storage(err, "failed to list orders")
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// ShippingCost applies the storefront shipping rule: free above the
// threshold, flat rate otherwise.
func (s *Service) ShippingCost(subtotal int64) int64 {
	if subtotal > s.config.Checkout.FreeShippingThreshold {
		return 0
	}
	return s.config.Checkout.ShippingFlatRate
}

// Private helper methods

func validateCreateRequest(req *CreateOrderRequest) error {
	if req == nil {
		return apperrors.Validation("request body required")
	}

	required := []struct {
		field string
		value string
	}{
		{"customer_info.name", req.CustomerInfo.Name},
		{"customer_info.email", req.CustomerInfo.Email},
		{"customer_info.phone", req.CustomerInfo.Phone},
		{"shipping_address.street", req.ShippingAddress.Street},
		{"shipping_address.city", req.ShippingAddress.City},
		{"shipping_address.state", req.ShippingAddress.State},
		{"shipping_address.zip", req.ShippingAddress.Zip},
		{"shipping_address.country", req.ShippingAddress.Country},
	}
	for _, f := range required {
		if f.value == "" {
			return apperrors.Validation("missing required field: %s", f.field)
		}
	}

	if !ValidPaymentMethod(req.PaymentMethod) {
		return apperrors.Validation("unknown payment method %q", req.PaymentMethod)
	}
	return nil
}

func (s *Service) recordHistory(ctx context.Context, orderID uint, status OrderStatus, comment, actor string) error {
	history := OrderStatusHistory{
		OrderID:   orderID,
		Status:    status,
		Comment:   comment,
		CreatedBy: actor,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(&history).Error
}
