package entity

import (
	"encoding/json"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the settlement record for one checkout. It is written exactly
// once, in the same transaction as the stock decrements and the optional
// ledger credit, and is independent of whether a ledger entry was made.
type Order struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	ShopID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"shop_id"`
	CustomerID   *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName string           `gorm:"size:255" json:"customer_name"`
	Items        []CartItem       `gorm:"type:jsonb;serializer:json" json:"items"`
	Subtotal     int64            `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Discount     int64            `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	Total        int64            `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	PaymentMode  enum.PaymentMode `gorm:"size:20;not null" json:"payment_mode"`
	CreatedAt    time.Time        `gorm:"index" json:"created_at"`

	// Relationships
	Shop     Shop      `gorm:"foreignKey:ShopID" json:"-"`
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (o Order) MarshalJSON() ([]byte, error) {
	type Alias Order
	return json.Marshal(&struct {
		Alias
		Subtotal float64 `json:"subtotal"`
		Discount float64 `json:"discount"`
		Total    float64 `json:"total"`
	}{
		Alias:    Alias(o),
		Subtotal: float64(o.Subtotal) / 100,
		Discount: float64(o.Discount) / 100,
		Total:    float64(o.Total) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// GetTotalDecimal returns the total as a decimal
func (o *Order) GetTotalDecimal() float64 {
	return float64(o.Total) / 100
}
