package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop is one tenant. Every customer, product, order and ledger entry
// belongs to exactly one shop and is invisible outside it.
type Shop struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Slug      string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Members []ShopMembership `gorm:"foreignKey:ShopID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new shop
func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Shop model
func (Shop) TableName() string {
	return "shops"
}

// Membership roles
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// ShopMembership links a user to the shop they work in. A user belongs
// to at most one shop.
type ShopMembership struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index" json:"shop_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Role      string    `gorm:"size:20;not null;default:'staff'" json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Shop Shop `gorm:"foreignKey:ShopID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new membership
func (m *ShopMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ShopMembership model
func (ShopMembership) TableName() string {
	return "shop_memberships"
}

// Invitation is a pending offer for an email address to join a shop as
// staff. It is consumed (deleted) when the invitee signs in and accepts.
type Invitation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	ShopID    uuid.UUID `gorm:"type:uuid;not null;index" json:"shop_id"`
	ShopName  string    `gorm:"size:255" json:"shop_name"`
	Role      string    `gorm:"size:20;not null;default:'staff'" json:"role"`
	InvitedBy uuid.UUID `gorm:"type:uuid;not null" json:"invited_by"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Shop Shop `gorm:"foreignKey:ShopID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new invitation
func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invitation model
func (Invitation) TableName() string {
	return "invitations"
}
