// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/plantstore-backend/internal/domain/cart"
	"github.com/your-org/plantstore-backend/internal/domain/order"
	"github.com/your-org/plantstore-backend/internal/domain/payment"
	"github.com/your-org/plantstore-backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService   *order.Service
	cartService    *cart.Service
	paymentService *payment.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, cartService *cart.Service, paymentService *payment.Service) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		cartService:    cartService,
		paymentService: paymentService,
	}
}

// CreateOrder handles POST /orders. The session cart is frozen into
// the order and cleared once the order exists.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	snapshot, err := h.cartService.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	o, err := h.orderService.CreatePendingOrder(c.Request.Context(), &req, snapshot)
	if err != nil {
		respondError(c, err)
		return
	}

	// The order now owns the items; an undeleted cart would just allow
	// a double checkout of the same lines
	if err := h.cartService.Clear(c.Request.Context(), sessionID); err != nil {
		c.Error(err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data": gin.H{
			"order_id":     o.ID,
			"order_number": o.OrderNumber,
			"status":       o.Status,
			"total":        o.Total,
		},
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by customer"
	}

	o, err := h.orderService.CancelOrder(c.Request.Context(), id, req.Reason, "customer")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.paymentService.CancelAttempts(c.Request.Context(), id); err != nil {
		c.Error(err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    o,
	})
}

// ListOrders handles GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orderService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    resp,
	})
}

// UpdateOrderStatus handles PATCH /admin/orders/:id
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status  order.OrderStatus `json:"status" binding:"required"`
		Comment string            `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	o, err := h.orderService.TransitionStatus(c.Request.Context(), id, req.Status, req.Comment, "admin")
	if err != nil {
		respondError(c, err)
		return
	}

	if o.Status == order.OrderStatusCancelled {
		if err := h.paymentService.CancelAttempts(c.Request.Context(), id); err != nil {
			c.Error(err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    o,
	})
}
