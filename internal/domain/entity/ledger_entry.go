package entity

import (
	"encoding/json"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is a snapshot of one checkout line at the moment of settlement.
// Snapshots are embedded in orders and in checkout-originated ledger
// entries so the history survives later product edits.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"` // cents
	Quantity  int       `json:"quantity"`
}

// LedgerEntry is one signed adjustment to a customer's running balance.
// Entries are append-only: they are created atomically with the matching
// TotalDue mutation and never updated or deleted afterwards.
//
// CreatedAt is server-assigned and is the authoritative ordering key.
// ClientDate is the caller's wall clock, kept only as a display fallback
// for entries that predate server timestamps.
type LedgerEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID uuid.UUID      `gorm:"type:uuid;not null;index" json:"customer_id"`
	ShopID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"shop_id"`
	Type       enum.EntryType `gorm:"size:20;not null" json:"type"`
	Amount     int64          `gorm:"not null" json:"-"` // Stored in cents, always > 0
	Note       string         `gorm:"size:255" json:"note"`
	CartItems  []CartItem     `gorm:"type:jsonb;serializer:json" json:"cart_items,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	ClientDate time.Time      `json:"date"`

	// Relationships
	Customer Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

// SignedAmount returns the delta this entry applies to the customer's
// running balance: negative for payments, positive for credits.
func (e *LedgerEntry) SignedAmount() int64 {
	return e.Type.Sign() * e.Amount
}

// DisplayTime returns the timestamp used for ordering in views. Entries
// lacking a server timestamp fall back to the client-supplied date; the
// fallback is display-only and plays no part in write serialization.
func (e *LedgerEntry) DisplayTime() time.Time {
	if !e.CreatedAt.IsZero() {
		return e.CreatedAt
	}
	return e.ClientDate
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	type Alias LedgerEntry
	return json.Marshal(&struct {
		Alias
		Amount       float64 `json:"amount"`
		SignedAmount float64 `json:"signed_amount"`
	}{
		Alias:        Alias(e),
		Amount:       float64(e.Amount) / 100,
		SignedAmount: float64(e.SignedAmount()) / 100,
	})
}

// BeforeCreate generates a UUID before creating a new ledger entry
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
