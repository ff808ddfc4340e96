package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents an inventory item. Stock is decremented without a
// floor check at checkout, so it can legitimately go negative under
// concurrent sales; StockAlert only drives the low-stock warning.
type Product struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ShopID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"shop_id"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Price      int64          `gorm:"default:0" json:"-"` // Stored in cents
	Stock      int            `gorm:"default:0" json:"stock"`
	StockAlert int            `gorm:"default:5" json:"stock_alert"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Shop Shop `gorm:"foreignKey:ShopID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (p Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	return json.Marshal(&struct {
		Alias
		Price float64 `json:"price"`
	}{
		Alias: Alias(p),
		Price: float64(p.Price) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// GetPriceDecimal returns the selling price as a decimal (for display)
func (p *Product) GetPriceDecimal() float64 {
	return float64(p.Price) / 100
}

// SetPriceFromDecimal sets the selling price from a decimal value
func (p *Product) SetPriceFromDecimal(price float64) {
	p.Price = int64(price*100 + 0.5)
}

// IsLowStock reports whether the product is at or below its alert level
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.StockAlert
}
