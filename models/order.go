package models

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses
	OrderStatusPending    OrderStatus = "pending"    // Order placed, awaiting payment
	OrderStatusProcessing OrderStatus = "processing" // Paid, being prepared
	OrderStatusShipped    OrderStatus = "shipped"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received the item
	OrderStatusCancelled  OrderStatus = "cancelled"  // Cancelled, stock restored

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "pending"  // Payment not completed yet
	PaymentStatusPaid     PaymentStatus = "paid"     // Payment completed successfully
	PaymentStatusFailed   PaymentStatus = "failed"   // Payment attempt failed
	PaymentStatusRefunded PaymentStatus = "refunded" // Money returned to customer
)

// Payment methods accepted at checkout
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodEWallet      = "e_wallet"
	PaymentMethodCOD          = "cod"
)

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	PaymentMethod   string          `gorm:"type:VARCHAR(20);not null" json:"payment_method"`
	ShippingName    string          `gorm:"not null" json:"shipping_name"`
	ShippingPhone   string          `gorm:"type:VARCHAR(20);not null" json:"shipping_phone"`
	ShippingAddress string          `gorm:"not null" json:"shipping_address"`
	Notes           string          `json:"notes"`
	PaidAt          *time.Time      `json:"paid_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a point-in-time snapshot of a purchased line. Name and
// price are denormalized so historical orders survive later product edits.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductID   uint            `json:"product_id"` // soft reference, product may be deleted later
	ProductName string          `gorm:"not null" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
}

// IsPayable reports whether the simulated payment can still run.
func (o *Order) IsPayable() bool {
	return o.PaymentStatus == PaymentStatusPending
}

// CanCancel reports whether the owner may still cancel the order.
// Shipped and delivered orders are past the point of no return.
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderNumber builds a human-facing reference like ORD-20250115-7GK2QD.
func GenerateOrderNumber() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderNumberCharset[rand.Intn(len(orderNumberCharset))]
	}
	return "ORD-" + time.Now().Format("20060102") + "-" + string(suffix)
}
