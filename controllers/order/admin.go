package orderControllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SyafiqMSI/minimal-commerce/models"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Map string to OrderStatus
func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(models.OrderStatusPending):
		return models.OrderStatusPending, nil
	case string(models.OrderStatusProcessing):
		return models.OrderStatusProcessing, nil
	case string(models.OrderStatusShipped):
		return models.OrderStatusShipped, nil
	case string(models.OrderStatusDelivered):
		return models.OrderStatusDelivered, nil
	case string(models.OrderStatusCancelled):
		return models.OrderStatusCancelled, nil
	default:
		return "", errors.New("invalid order status")
	}
}

// AdminUpdateStatus sets the order status without the user-facing
// transition restrictions: an admin may force any of the enumerated
// statuses. Entering cancelled from a non-cancelled status restores the
// item snapshots' stock and refunds a paid order, exactly like a user
// cancellation. The status predicate on the update is what guards the
// restore: only the flip that actually left a non-cancelled status
// credits stock back, so racing cancellations cannot double-restore.
func AdminUpdateStatus(db *gorm.DB, order *models.Order, newStatus models.OrderStatus) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if newStatus == models.OrderStatusCancelled {
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status <> ?", order.ID, models.OrderStatusCancelled).
				Updates(map[string]interface{}{
					"status": models.OrderStatusCancelled,
					"payment_status": gorm.Expr("CASE WHEN payment_status = ? THEN ? ELSE payment_status END",
						models.PaymentStatusPaid, models.PaymentStatusRefunded),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				if err := restoreOrderStock(tx, order); err != nil {
					return err
				}
			}
			return tx.First(order, order.ID).Error
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", newStatus).Error; err != nil {
			return err
		}
		return tx.First(order, order.ID).Error
	})
}

// -------- Handlers --------

// GET /admin/orders
func AdminGetOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Items").Preload("User")

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
			query = query.Where("payment_status = ?", paymentStatus)
		}
		if search := c.Query("search"); search != "" {
			pattern := "%" + search + "%"
			query = query.Where("order_number LIKE ? OR shipping_name LIKE ?", pattern, pattern)
		}

		var orders []models.Order
		if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
			log.Printf("Failed to retrieve admin orders: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve orders. Please try again later."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": orders})
	}
}

// PUT /admin/orders/:orderID/status
func AdminUpdateStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Validation failed", "errors": err.Error()})
			return
		}
		newStatus, err := mapOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Validation failed", "errors": err.Error()})
			return
		}

		order, ok := fetchOrder(db, c)
		if !ok {
			return
		}
		previousStatus := order.Status

		if err := AdminUpdateStatus(db, order, newStatus); err != nil {
			log.Printf("Failed to update status of order %d: %v", order.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update order status. Please try again later."})
			return
		}

		broadcastOrderEvent("order.status_updated", *order)
		log.Printf("Order %s status updated: %s -> %s", order.OrderNumber, previousStatus, newStatus)

		c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "data": order})
	}
}
