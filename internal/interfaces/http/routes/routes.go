// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/domain/cart"
	"github.com/your-org/plantstore-backend/internal/domain/order"
	"github.com/your-org/plantstore-backend/internal/domain/payment"
	"github.com/your-org/plantstore-backend/internal/domain/plant"
	"github.com/your-org/plantstore-backend/internal/interfaces/http/handlers"
	"github.com/your-org/plantstore-backend/internal/interfaces/http/middleware"
	"github.com/your-org/plantstore-backend/internal/pkg/email"
	"gorm.io/gorm"
)

// SetupRoutes wires all API v1 routes
func SetupRoutes(api *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) {
	// Services
	plantService := plant.NewService(db, cfg)
	cartService := cart.NewService(redisClient, cfg, plantService)
	emailService := email.NewService(cfg, log)
	orderService := order.NewService(db, cfg, emailService, log)
	paymentService := payment.NewService(db, cfg, orderService, nil, log)

	// Handlers
	plantHandler := handlers.NewPlantHandler(plantService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService, cartService, paymentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cartService)

	// Every storefront route needs a session identity
	api.Use(middleware.Session(cfg))

	// Plant catalog
	plants := api.Group("/plants")
	{
		plants.GET("", plantHandler.ListPlants)
		plants.GET("/:id", plantHandler.GetPlant)
	}

	// Cart
	cartRoutes := api.Group("/cart")
	{
		cartRoutes.GET("", cartHandler.GetCart)
		cartRoutes.POST("", cartHandler.AddItem)
		cartRoutes.PUT("", cartHandler.UpdateItem)
		cartRoutes.DELETE("/:plantId", cartHandler.RemoveItem)
		cartRoutes.DELETE("", cartHandler.ClearCart)
	}

	// Orders and payment
	orders := api.Group("/orders")
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.POST("/:id/payment", paymentHandler.InitiatePayment)
		orders.POST("/:id/confirm-payment", paymentHandler.ConfirmPayment)
		orders.GET("/:id/payment-attempts", paymentHandler.ListAttempts)
	}

	// Admin back office
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/orders", orderHandler.ListOrders)
		admin.PATCH("/orders/:id", orderHandler.UpdateOrderStatus)
	}
}
