// internal/domain/order/entity_test.go
package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to paid", OrderStatusPendingPayment, OrderStatusPaid, true},
		{"pending to payment failed", OrderStatusPendingPayment, OrderStatusPaymentFailed, true},
		{"pending to cancelled", OrderStatusPendingPayment, OrderStatusCancelled, true},
		{"pending cannot skip to processing", OrderStatusPendingPayment, OrderStatusProcessing, false},
		{"pending cannot skip to delivered", OrderStatusPendingPayment, OrderStatusDelivered, false},

		{"payment failed reopens for retry", OrderStatusPaymentFailed, OrderStatusPendingPayment, true},
		{"payment failed to cancelled", OrderStatusPaymentFailed, OrderStatusCancelled, true},
		{"payment failed cannot jump to paid", OrderStatusPaymentFailed, OrderStatusPaid, false},

		{"paid to processing", OrderStatusPaid, OrderStatusProcessing, true},
		{"paid cannot regress to pending", OrderStatusPaid, OrderStatusPendingPayment, false},
		{"processing to shipped", OrderStatusProcessing, OrderStatusShipped, true},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"shipped cannot regress", OrderStatusShipped, OrderStatusProcessing, false},

		{"delivered is terminal", OrderStatusDelivered, OrderStatusCancelled, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusPendingPayment, false},
		{"cancelled cannot revive to paid", OrderStatusCancelled, OrderStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPendingPayment.IsTerminal())
	assert.False(t, OrderStatusPaymentFailed.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
}

func TestFormatOrderNumber(t *testing.T) {
	at := time.Date(2025, time.March, 7, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20250307-00042", FormatOrderNumber(42, at))
	assert.Equal(t, "ORD-20250307-123456", FormatOrderNumber(123456, at))
}

func TestCanBeCancelled(t *testing.T) {
	for _, st := range []OrderStatus{
		OrderStatusPendingPayment, OrderStatusPaymentFailed,
		OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
	} {
		o := Order{Status: st}
		assert.True(t, o.CanBeCancelled(), "status %s", st)
	}
	for _, st := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		o := Order{Status: st}
		assert.False(t, o.CanBeCancelled(), "status %s", st)
	}
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentMethodUPI))
	assert.True(t, ValidPaymentMethod(PaymentMethodCOD))
	assert.False(t, ValidPaymentMethod("crypto"))
	assert.False(t, ValidPaymentMethod(""))
}
