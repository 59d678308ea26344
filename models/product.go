package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasStock reports whether qty units are currently available.
func (p *Product) HasStock(qty int) bool {
	return qty <= p.Quantity
}

// ReserveStock claims qty units of a product with a single conditional
// decrement. The quantity guard makes the update atomic: two concurrent
// reservations for the same product cannot both pass it, so the row can
// never go negative. Returns false without mutation when stock is short.
func ReserveStock(db *gorm.DB, productID uint, qty int) (bool, error) {
	res := db.Model(&Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock credits qty units back to a product, for rollback and
// cancellation. No upper bound is enforced. Restoring a product that has
// since been deleted is a no-op.
func RestoreStock(db *gorm.DB, productID uint, qty int) error {
	return db.Model(&Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
}
