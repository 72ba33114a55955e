// internal/interfaces/http/handlers/plant.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/plantstore-backend/internal/domain/plant"
)

// PlantHandler handles plant catalog endpoints
type PlantHandler struct {
	plantService *plant.Service
}

// NewPlantHandler creates a new plant handler
func NewPlantHandler(plantService *plant.Service) *PlantHandler {
	return &PlantHandler{
		plantService: plantService,
	}
}

// ListPlants handles GET /plants
func (h *PlantHandler) ListPlants(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	plants, err := h.plantService.ListPlants(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Plants retrieved successfully",
		"data": gin.H{
			"plants": plants,
			"count":  len(plants),
		},
	})
}

// GetPlant handles GET /plants/:id
func (h *PlantHandler) GetPlant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.plantService.GetPlant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Plant retrieved successfully",
		"data":    p,
	})
}
