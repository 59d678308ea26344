package orderControllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SyafiqMSI/minimal-commerce/models"
)

// -------- Helpers --------

func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func isAdmin(c *gin.Context) bool {
	return c.GetString("role") == string(models.RoleAdmin)
}

// fetchOrder loads the order addressed by the :orderID param with its
// items. Writes the 404 response itself when the order does not exist.
func fetchOrder(db *gorm.DB, c *gin.Context) (*models.Order, bool) {
	orderID := c.Param("orderID")

	var order models.Order
	if err := db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return nil, false
		}
		log.Printf("Failed to fetch order %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve order details."})
		return nil, false
	}
	return &order, true
}

// restoreOrderStock credits every snapshotted quantity back to its
// product. Products deleted since purchase are skipped silently.
func restoreOrderStock(tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if err := models.RestoreStock(tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// -------- Core Logic --------

// PayOrder simulates payment: a pending payment flips to paid and the
// order moves to processing. The payment_status predicate on the update
// makes the flip atomic, so of two racing payments only one succeeds.
func PayOrder(db *gorm.DB, order *models.Order) error {
	if !order.IsPayable() {
		return ErrNotPayable
	}
	now := time.Now()
	res := db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", order.ID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"status":         models.OrderStatusProcessing,
			"paid_at":        now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// The snapshot was stale: someone else paid or cancelled first.
		return ErrNotPayable
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.Status = models.OrderStatusProcessing
	order.PaidAt = &now
	return nil
}

// CancelOrder cancels a pending or processing order and restores the
// stock recorded in its item snapshots. The idempotency barrier is the
// status predicate on the update itself, not the fetched snapshot: of
// two racing cancels only one flip affects a row, so stock is restored
// exactly once per order.
func CancelOrder(db *gorm.DB, order *models.Order) error {
	if !order.CanCancel() {
		return ErrNotCancellable
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", order.ID,
				[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing}).
			Updates(map[string]interface{}{
				"status": models.OrderStatusCancelled,
				"payment_status": gorm.Expr("CASE WHEN payment_status = ? THEN ? ELSE ? END",
					models.PaymentStatusPaid, models.PaymentStatusRefunded, models.PaymentStatusFailed),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The snapshot was stale: the order left the cancellable
			// states after it was fetched.
			return ErrNotCancellable
		}
		if err := restoreOrderStock(tx, order); err != nil {
			return err
		}
		return tx.First(order, order.ID).Error
	})
}

// -------- Handlers --------

// GET /orders
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		query := db.Where("user_id = ?", userID).Preload("Items")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var orders []models.Order
		if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
			log.Printf("Failed to retrieve orders for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve orders. Please try again later."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": orders})
	}
}

// GET /orders/:orderID
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		order, ok := fetchOrder(db, c)
		if !ok {
			return
		}
		if order.UserID != userID && !isAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"message": "You do not have permission to view this order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": order})
	}
}

// POST /orders/:orderID/pay
func PayOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		order, ok := fetchOrder(db, c)
		if !ok {
			return
		}
		if order.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"message": "You do not have permission to pay this order"})
			return
		}

		if err := PayOrder(db, order); err != nil {
			if isDomainErr(err) {
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
				return
			}
			log.Printf("Failed to process payment for order %d: %v", order.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to process payment. Please try again later."})
			return
		}

		broadcastOrderEvent("order.paid", *order)
		log.Printf("Order %s paid by user %d (total %s)", order.OrderNumber, userID, order.TotalAmount)

		c.JSON(http.StatusOK, gin.H{"message": "Payment successful", "data": order})
	}
}

// POST /orders/:orderID/cancel
func CancelOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		order, ok := fetchOrder(db, c)
		if !ok {
			return
		}
		if order.UserID != userID && !isAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"message": "You do not have permission to cancel this order"})
			return
		}

		if err := CancelOrder(db, order); err != nil {
			if isDomainErr(err) {
				c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
				return
			}
			log.Printf("Failed to cancel order %d: %v", order.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to cancel order. Please try again later."})
			return
		}

		broadcastOrderEvent("order.cancelled", *order)
		log.Printf("Order %s cancelled by user %d", order.OrderNumber, userID)

		c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "data": order})
	}
}
