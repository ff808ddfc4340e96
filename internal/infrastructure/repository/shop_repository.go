package repository

import (
	"context"
	"errors"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	domainRepo "github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *gorm.DB) domainRepo.ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) Create(ctx context.Context, shop *entity.Shop) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shop).Error; err != nil {
			return err
		}
		membership := &entity.ShopMembership{
			ShopID: shop.ID,
			UserID: shop.OwnerID,
			Role:   entity.RoleOwner,
		}
		return tx.Create(membership).Error
	})
}

func (r *shopRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	var shop entity.Shop
	err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) GetBySlug(ctx context.Context, slug string) (*entity.Shop, error) {
	var shop entity.Shop
	err := r.db.WithContext(ctx).First(&shop, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) GetForUser(ctx context.Context, userID uuid.UUID) (*entity.Shop, error) {
	var shop entity.Shop
	err := r.db.WithContext(ctx).
		Joins("JOIN shop_memberships ON shop_memberships.shop_id = shops.id").
		Where("shop_memberships.user_id = ?", userID).
		First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) IsMember(ctx context.Context, shopID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ShopMembership{}).
		Where("shop_id = ? AND user_id = ?", shopID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *shopRepository) AddMember(ctx context.Context, membership *entity.ShopMembership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *shopRepository) ListMembers(ctx context.Context, shopID uuid.UUID) ([]entity.ShopMembership, error) {
	var members []entity.ShopMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("shop_id = ?", shopID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *shopRepository) CreateInvitation(ctx context.Context, invitation *entity.Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *shopRepository) GetInvitationByEmail(ctx context.Context, email string) (*entity.Invitation, error) {
	var invitation entity.Invitation
	err := r.db.WithContext(ctx).First(&invitation, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *shopRepository) DeleteInvitation(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Invitation{}, "id = ?", id).Error
}
