// internal/domain/payment/entity.go
package payment

import (
	"time"

	"github.com/your-org/plantstore-backend/internal/domain/order"
)

// AttemptOutcome represents the state of a single payment attempt
type AttemptOutcome string

const (
	OutcomeUnconfirmed AttemptOutcome = "unconfirmed"
	OutcomeConfirmed   AttemptOutcome = "confirmed"
	OutcomeFailed      AttemptOutcome = "failed"
	OutcomeCancelled   AttemptOutcome = "cancelled"
)

// Attempt records one try at paying for an order. An order in
// pending_payment has at most one unconfirmed attempt at a time;
// a retry after failure opens a fresh attempt.
type Attempt struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	OrderID   uint                `gorm:"not null;index" json:"order_id"`
	Reference string              `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	Method    order.PaymentMethod `gorm:"not null;size:20" json:"method"`
	Amount    int64               `gorm:"not null" json:"amount"`
	Outcome   AttemptOutcome      `gorm:"not null;default:'unconfirmed'" json:"outcome"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// TableName returns the table name for Attempt model
func (Attempt) TableName() string {
	return "payment_attempts"
}

// Instructions tells the customer how to complete a payment attempt
type Instructions struct {
	OrderID     uint                `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	Reference   string              `json:"reference"`
	Method      order.PaymentMethod `json:"method"`
	Amount      int64               `json:"amount"`
	PaymentURI  string              `json:"payment_uri,omitempty"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	Note        string              `json:"note,omitempty"`
}
