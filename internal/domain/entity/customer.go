package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a pay-later customer of a shop.
//
// TotalDue is the cached running balance in cents: the sum of the signed
// amounts of every ledger entry belonging to the customer. It is only ever
// mutated together with an appended LedgerEntry inside one database
// transaction, so at any quiescent point it equals the entry sum exactly.
// It is signed: an overpaying customer carries a negative balance.
// Customers are never deleted.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index" json:"shop_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Phone     *string   `gorm:"size:50" json:"phone,omitempty"`
	TotalDue  int64     `gorm:"not null;default:0" json:"-"` // Stored in cents, excluded from JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Shop    Shop          `gorm:"foreignKey:ShopID" json:"-"`
	Entries []LedgerEntry `gorm:"foreignKey:CustomerID" json:"-"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (c Customer) MarshalJSON() ([]byte, error) {
	type Alias Customer
	return json.Marshal(&struct {
		Alias
		TotalDue float64 `json:"total_due"`
	}{
		Alias:    Alias(c),
		TotalDue: float64(c.TotalDue) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// GetTotalDueDecimal returns the running balance as a decimal (for display)
func (c *Customer) GetTotalDueDecimal() float64 {
	return float64(c.TotalDue) / 100
}
