package repository

import (
	"context"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/google/uuid"
)

// ShopRepository defines the interface for shop and membership data operations
type ShopRepository interface {
	// Create persists the shop and the owner's membership atomically.
	Create(ctx context.Context, shop *entity.Shop) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Shop, error)
	// GetForUser returns the shop the user is a member of, or nil when
	// the user has no shop yet.
	GetForUser(ctx context.Context, userID uuid.UUID) (*entity.Shop, error)
	IsMember(ctx context.Context, shopID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, membership *entity.ShopMembership) error
	ListMembers(ctx context.Context, shopID uuid.UUID) ([]entity.ShopMembership, error)

	CreateInvitation(ctx context.Context, invitation *entity.Invitation) error
	GetInvitationByEmail(ctx context.Context, email string) (*entity.Invitation, error)
	DeleteInvitation(ctx context.Context, id uuid.UUID) error
}
