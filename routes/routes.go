package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up the cart, order,
// and admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// Cart routes (JWT-protected)
	SetupCartRoutes(r, db)

	// Order routes (JWT-protected, admin group behind role gate)
	SetupOrderRoutes(r, db)
}
