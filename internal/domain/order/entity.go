// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethod represents the chosen payment instrument
type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodCOD        PaymentMethod = "cod"
)

// ValidPaymentMethod reports whether m is a known payment method
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetBanking, PaymentMethodCOD:
		return true
	}
	return false
}

// validTransitions is the forward-only order state machine.
// payment_failed -> pending_payment is the retry path: a new payment
// attempt reopens the order without recreating it.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {
		OrderStatusPaid,
		OrderStatusPaymentFailed,
		OrderStatusCancelled,
	},
	OrderStatusPaymentFailed: {
		OrderStatusPendingPayment,
		OrderStatusCancelled,
	},
	OrderStatusPaid: {
		OrderStatusProcessing,
		OrderStatusCancelled,
	},
	OrderStatusProcessing: {
		OrderStatusShipped,
		OrderStatusCancelled,
	},
	OrderStatusShipped: {
		OrderStatusDelivered,
		OrderStatusCancelled,
	},
	// delivered and cancelled are terminal
}

// CanTransition reports whether to is reachable from from in one step
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CustomerInfo is the purchaser contact block embedded in an order
type CustomerInfo struct {
	Name  string `gorm:"size:255" json:"name" binding:"required"`
	Email string `gorm:"size:255" json:"email" binding:"required,email"`
	Phone string `gorm:"size:20" json:"phone" binding:"required"`
}

// ShippingAddress is the delivery address embedded in an order
type ShippingAddress struct {
	Street  string `gorm:"size:255" json:"street" binding:"required"`
	City    string `gorm:"size:100" json:"city" binding:"required"`
	State   string `gorm:"size:100" json:"state" binding:"required"`
	Zip     string `gorm:"size:20" json:"zip" binding:"required"`
	Country string `gorm:"size:100" json:"country" binding:"required"`
}

// Order is the durable record of a purchase attempt. Orders are never
// deleted, only status-transitioned.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	SessionID       string          `gorm:"index;size:64" json:"session_id"`
	CustomerInfo    CustomerInfo    `gorm:"embedded;embeddedPrefix:customer_" json:"customer_info"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Status          OrderStatus     `gorm:"not null;index;default:'pending_payment'" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentMethod   PaymentMethod   `gorm:"not null;size:20" json:"payment_method"`

	// Amounts in whole rupees
	Subtotal     int64 `gorm:"not null" json:"subtotal"`
	ShippingCost int64 `gorm:"not null" json:"shipping_cost"`
	Total        int64 `gorm:"not null" json:"total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a frozen snapshot of one cart line at order-creation
// time. It is a copy, never a live reference to the cart.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	PlantID   uint      `gorm:"not null;index" json:"plant_id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	ImageURL  string    `gorm:"size:500" json:"image_url"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	LineTotal int64     `gorm:"not null" json:"line_total"` // Quantity * UnitPrice
	CreatedAt time.Time `json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy string      `gorm:"size:100" json:"created_by"` // "system", session id or admin subject
	CreatedAt time.Time   `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// FormatOrderNumber builds the human-readable order code
func FormatOrderNumber(id uint, at time.Time) string {
	// Format: ORD-YYYYMMDD-XXXXX
	return fmt.Sprintf("ORD-%s-%05d", at.Format("20060102"), id)
}

// CanBeCancelled checks if the order can still be cancelled
func (o *Order) CanBeCancelled() bool {
	return !o.Status.IsTerminal()
}
