package cartControllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/SyafiqMSI/minimal-commerce/models"
)

type AddCartItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,min=1"`
}

type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// cartResponse reloads the cart with products and derives line subtotals
// and the running total.
func cartResponse(db *gorm.DB, cartID uint) (gin.H, error) {
	var cart models.Cart
	if err := db.Preload("Items.Product").First(&cart, cartID).Error; err != nil {
		return nil, err
	}

	items := make([]gin.H, 0, len(cart.Items))
	total := decimal.Zero
	totalItems := 0
	for i := range cart.Items {
		item := &cart.Items[i]
		subtotal := item.Subtotal()
		items = append(items, gin.H{
			"id":         item.ID,
			"product_id": item.ProductID,
			"product":    item.Product,
			"quantity":   item.Quantity,
			"subtotal":   subtotal,
		})
		total = total.Add(subtotal)
		totalItems += item.Quantity
	}

	return gin.H{
		"id":          cart.ID,
		"items":       items,
		"total":       total,
		"total_items": totalItems,
	}, nil
}

// GET /cart
func GetCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		cart, err := models.GetOrCreateCart(db, userID)
		if err != nil {
			log.Printf("Failed to fetch cart for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve cart."})
			return
		}

		data, err := cartResponse(db, cart.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve cart."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": data})
	}
}

// POST /cart
func AddCartItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		var input AddCartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Validation failed", "errors": err.Error()})
			return
		}
		quantity := input.Quantity
		if quantity == 0 {
			quantity = 1
		}

		var product models.Product
		if err := db.First(&product, input.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to validate product."})
			return
		}

		cart, err := models.GetOrCreateCart(db, userID)
		if err != nil {
			log.Printf("Failed to fetch cart for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve cart."})
			return
		}

		// One line per (cart, product): adding again increments quantity.
		var item models.CartItem
		err = db.Where("cart_id = ? AND product_id = ?", cart.ID, product.ID).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += quantity
			err = db.Save(&item).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity}
			err = db.Create(&item).Error
		}
		if err != nil {
			log.Printf("Failed to add cart item for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to add item to cart."})
			return
		}

		data, err := cartResponse(db, cart.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve cart."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item added to cart successfully", "data": data})
	}
}

// PUT /cart/:itemID
func UpdateCartItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		var input UpdateCartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Validation failed", "errors": err.Error()})
			return
		}

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cart not found"})
			return
		}

		var item models.CartItem
		if err := db.Where("id = ? AND cart_id = ?", c.Param("itemID"), cart.ID).First(&item).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cart item not found"})
			return
		}

		item.Quantity = input.Quantity
		if err := db.Save(&item).Error; err != nil {
			log.Printf("Failed to update cart item %d: %v", item.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update cart item."})
			return
		}

		data, err := cartResponse(db, cart.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve cart."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item updated successfully", "data": data})
	}
}

// DELETE /cart/:itemID
func RemoveCartItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cart not found"})
			return
		}

		result := db.Where("id = ? AND cart_id = ?", c.Param("itemID"), cart.ID).Delete(&models.CartItem{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove cart item."})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cart item not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
	}
}

// DELETE /cart
func ClearCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		var cart models.Cart
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cart not found"})
			return
		}

		if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			log.Printf("Failed to clear cart for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to clear cart."})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}
