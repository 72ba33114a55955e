// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/plantstore-backend/internal/domain/cart"
	"github.com/your-org/plantstore-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// AddItemRequest is the body for POST /cart
type AddItemRequest struct {
	PlantID  uint `json:"plant_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// UpdateItemRequest is the body for PUT /cart. Quantity zero removes
// the line, so it has no required binding.
type UpdateItemRequest struct {
	PlantID  uint `json:"plant_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	view, err := h.cartService.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    view,
	})
}

// AddItem handles POST /cart
func (h *CartHandler) AddItem(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	view, err := h.cartService.AddItem(c.Request.Context(), sessionID, req.PlantID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    view,
	})
}

// UpdateItem handles PUT /cart
func (h *CartHandler) UpdateItem(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	view, err := h.cartService.UpdateQuantity(c.Request.Context(), sessionID, req.PlantID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated successfully",
		"data":    view,
	})
}

// RemoveItem handles DELETE /cart/:plantId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	plantID, ok := parseIDParam(c, "plantId")
	if !ok {
		return
	}

	view, err := h.cartService.RemoveItem(c.Request.Context(), sessionID, plantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    view,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	if err := h.cartService.Clear(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}
