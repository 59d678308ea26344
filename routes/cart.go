package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/SyafiqMSI/minimal-commerce/controllers/cart"
	"github.com/SyafiqMSI/minimal-commerce/middleware"
)

func SetupCartRoutes(r *gin.Engine, db *gorm.DB) {
	cart := r.Group("/cart")
	cart.Use(middleware.ValidateToken)
	{
		cart.GET("", cartControllers.GetCartHandler(db))                   // GET /cart
		cart.POST("", cartControllers.AddCartItemHandler(db))              // POST /cart
		cart.PUT("/:itemID", cartControllers.UpdateCartItemHandler(db))    // PUT /cart/:itemID
		cart.DELETE("/:itemID", cartControllers.RemoveCartItemHandler(db)) // DELETE /cart/:itemID
		cart.DELETE("", cartControllers.ClearCartHandler(db))              // DELETE /cart
	}
}
