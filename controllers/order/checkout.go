package orderControllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/SyafiqMSI/minimal-commerce/models"
)

// -------- Request Structs --------

type CheckoutRequest struct {
	ShippingName    string `json:"shipping_name" binding:"required,max=255"`
	ShippingPhone   string `json:"shipping_phone" binding:"required,max=20"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
	PaymentMethod   string `json:"payment_method" binding:"required,oneof=bank_transfer e_wallet cod"`
	Notes           string `json:"notes"`
	SelectedItemIDs []uint `json:"selected_item_ids"`
}

// -------- Core Logic --------

// resolveCheckoutItems loads the user's cart lines with their products
// and applies the optional selection filter. An explicit selection that
// matches nothing is an error; no selection means the full cart.
func resolveCheckoutItems(db *gorm.DB, userID uint, selectedIDs []uint) ([]models.CartItem, error) {
	var cart models.Cart
	if err := db.Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	items := cart.Items
	if len(selectedIDs) > 0 {
		selected := make(map[uint]bool, len(selectedIDs))
		for _, id := range selectedIDs {
			selected[id] = true
		}
		var filtered []models.CartItem
		for _, item := range items {
			if selected[item.ID] {
				filtered = append(filtered, item)
			}
		}
		if len(filtered) == 0 {
			return nil, ErrNoValidSelection
		}
		items = filtered
	}

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

// Checkout converts the resolved cart lines into a persisted order.
// Stock reservation, the order snapshot, and the cart cleanup all run in
// one transaction, so a failure on any line leaves nothing behind.
func Checkout(db *gorm.DB, userID uint, req CheckoutRequest) (*models.Order, error) {
	items, err := resolveCheckoutItems(db, userID, req.SelectedItemIDs)
	if err != nil {
		return nil, err
	}

	// Pre-check every line before touching anything, so the common
	// failure mode is free of side effects.
	for _, item := range items {
		if !item.Product.HasStock(item.Quantity) {
			return nil, &InsufficientStockError{
				ProductName: item.Product.Name,
				Available:   item.Product.Quantity,
			}
		}
	}

	// Totals use the current product price, not a stale cart snapshot.
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	var order models.Order
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			ok, err := models.ReserveStock(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// Lost a race since the pre-check. Rolling back the
				// transaction releases every reservation made above.
				available := 0
				var product models.Product
				if err := tx.First(&product, item.ProductID).Error; err == nil {
					available = product.Quantity
				}
				return &InsufficientStockError{
					ProductName: item.Product.Name,
					Available:   available,
				}
			}
		}

		number, err := uniqueOrderNumber(tx)
		if err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		consumedIDs := make([]uint, 0, len(items))
		for _, item := range items {
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				Price:       item.Product.Price,
				Quantity:    item.Quantity,
				Subtotal:    item.Subtotal(),
			})
			consumedIDs = append(consumedIDs, item.ID)
		}

		order = models.Order{
			OrderNumber:     number,
			UserID:          userID,
			Items:           orderItems,
			TotalAmount:     total,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			ShippingName:    req.ShippingName,
			ShippingPhone:   req.ShippingPhone,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Only the consumed lines leave the cart; an unselected line survives.
		return tx.Where("id IN ?", consumedIDs).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// uniqueOrderNumber retries generation until the candidate is unused.
// Collisions on 6 random characters are rare but not impossible.
func uniqueOrderNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		number := models.GenerateOrderNumber()
		var count int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", errors.New("could not generate a unique order number")
}

// -------- Handlers --------

// POST /orders
func CheckoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Validation failed", "errors": err.Error()})
			return
		}

		order, err := Checkout(db, userID, req)
		if err != nil {
			if isDomainErr(err) {
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
				return
			}
			log.Printf("Failed to create order for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create order. Please try again later."})
			return
		}

		if err := db.Preload("Items").First(order, order.ID).Error; err != nil {
			log.Printf("Failed to reload order %d: %v", order.ID, err)
		}

		broadcastOrderEvent("order.created", *order)
		log.Printf("Order %s created for user %d (total %s)", order.OrderNumber, userID, order.TotalAmount)

		c.JSON(http.StatusCreated, gin.H{
			"message": "Order created successfully",
			"data":    order,
		})
	}
}
