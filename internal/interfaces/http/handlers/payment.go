// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/plantstore-backend/internal/domain/cart"
	"github.com/your-org/plantstore-backend/internal/domain/order"
	"github.com/your-org/plantstore-backend/internal/domain/payment"
	"github.com/your-org/plantstore-backend/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *payment.Service
	cartService    *cart.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payment.Service, cartService *cart.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		cartService:    cartService,
	}
}

// InitiatePayment handles POST /orders/:id/payment
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	instructions, err := h.paymentService.Initiate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment initiated successfully",
		"data":    instructions,
	})
}

// ConfirmPayment handles POST /orders/:id/confirm-payment
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Outcome order.ConfirmOutcome `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	o, err := h.paymentService.Confirm(c.Request.Context(), id, req.Outcome)
	if err != nil {
		respondError(c, err)
		return
	}

	// The order is the source of truth; a cart left behind must never
	// undo a confirmed payment
	if o.Status == order.OrderStatusPaid {
		if sessionID := middleware.GetSessionIDFromContext(c); sessionID != "" {
			if err := h.cartService.Clear(c.Request.Context(), sessionID); err != nil {
				c.Error(err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmation processed",
		"data": gin.H{
			"order_number":   o.OrderNumber,
			"status":         o.Status,
			"payment_status": o.PaymentStatus,
		},
	})
}

// ListAttempts handles GET /orders/:id/payment-attempts
func (h *PaymentHandler) ListAttempts(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attempts, err := h.paymentService.Attempts(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment attempts retrieved successfully",
		"data":    attempts,
	})
}
