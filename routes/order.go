package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/SyafiqMSI/minimal-commerce/controllers/order"
	"github.com/SyafiqMSI/minimal-commerce/middleware"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken)
	{
		// Checkout: convert cart lines into an order
		orders.POST("", orderControllers.CheckoutHandler(db))

		// Fetch the caller's orders
		orders.GET("", orderControllers.GetUserOrdersHandler(db))

		// Fetch a single order
		orders.GET("/:orderID", orderControllers.GetOrderHandler(db))

		// Simulated payment
		orders.POST("/:orderID/pay", orderControllers.PayOrderHandler(db))

		// Cancel (owner or admin)
		orders.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(db))
	}

	// websocket endpoint for real-time order updates
	r.GET("/orders/ws", orderControllers.OrderEventsHandler)

	admin := r.Group("/admin/orders")
	admin.Use(middleware.ValidateToken, middleware.RequireAdmin)
	{
		// Fetch all orders with filters
		admin.GET("", orderControllers.AdminGetOrdersHandler(db))

		// Force order status (e.g. shipped, cancelled)
		admin.PUT("/:orderID/status", orderControllers.AdminUpdateStatusHandler(db))
	}
}
