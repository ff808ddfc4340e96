package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/pkg/apperror"
	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ShopService handles shop, membership and invitation operations
type ShopService struct {
	shopRepo repository.ShopRepository
	userRepo repository.UserRepository
}

// NewShopService creates a new shop service
func NewShopService(shopRepo repository.ShopRepository, userRepo repository.UserRepository) *ShopService {
	return &ShopService{shopRepo: shopRepo, userRepo: userRepo}
}

// CreateShop creates a shop owned by the user. A user belongs to one
// shop at a time.
func (s *ShopService) CreateShop(ctx context.Context, ownerID uuid.UUID, name string) (*entity.Shop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "name", Message: "Name is required"},
		})
	}

	existing, err := s.shopRepo.GetForUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewBadRequestError("You already belong to a shop")
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	shop := &entity.Shop{
		Name:    name,
		Slug:    slug,
		OwnerID: ownerID,
	}
	if err := s.shopRepo.Create(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// GetMyShop returns the user's shop, or a not-found error when the user
// has not created or joined one.
func (s *ShopService) GetMyShop(ctx context.Context, userID uuid.UUID) (*entity.Shop, error) {
	shop, err := s.shopRepo.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, apperror.NewNotFoundError("Shop")
	}
	return shop, nil
}

// RequireMembership verifies the user can act within the shop
func (s *ShopService) RequireMembership(ctx context.Context, shopID, userID uuid.UUID) error {
	member, err := s.shopRepo.IsMember(ctx, shopID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperror.ErrPermissionDenied
	}
	return nil
}

// InviteStaff records an invitation for an email address to join the
// shop as staff. Only the owner may invite.
func (s *ShopService) InviteStaff(ctx context.Context, shopID, inviterID uuid.UUID, email string) (*entity.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "email", Message: "A valid email is required"},
		})
	}

	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, apperror.NewNotFoundError("Shop")
	}
	if shop.OwnerID != inviterID {
		return nil, apperror.ErrPermissionDenied
	}

	pending, err := s.shopRepo.GetInvitationByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, apperror.ErrConflict
	}

	invitation := &entity.Invitation{
		Email:     email,
		ShopID:    shop.ID,
		ShopName:  shop.Name,
		Role:      entity.RoleStaff,
		InvitedBy: inviterID,
	}
	if err := s.shopRepo.CreateInvitation(ctx, invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

// PendingInvitation returns the invitation waiting for the user's email,
// or nil when there is none.
func (s *ShopService) PendingInvitation(ctx context.Context, userID uuid.UUID) (*entity.Invitation, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return s.shopRepo.GetInvitationByEmail(ctx, user.Email)
}

// AcceptInvitation consumes the user's pending invitation and joins them
// to the inviting shop as staff.
func (s *ShopService) AcceptInvitation(ctx context.Context, userID uuid.UUID) (*entity.Shop, error) {
	invitation, err := s.PendingInvitation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, apperror.NewNotFoundError("Invitation")
	}

	existing, err := s.shopRepo.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewBadRequestError("You already belong to a shop")
	}

	membership := &entity.ShopMembership{
		ShopID: invitation.ShopID,
		UserID: userID,
		Role:   invitation.Role,
	}
	if err := s.shopRepo.AddMember(ctx, membership); err != nil {
		return nil, err
	}
	if err := s.shopRepo.DeleteInvitation(ctx, invitation.ID); err != nil {
		return nil, err
	}

	return s.shopRepo.GetByID(ctx, invitation.ShopID)
}

// ListMembers returns the shop's staff roster
func (s *ShopService) ListMembers(ctx context.Context, shopID uuid.UUID) ([]entity.ShopMembership, error) {
	return s.shopRepo.ListMembers(ctx, shopID)
}

// uniqueSlug derives a URL-safe slug from the shop name, suffixing a
// counter when the plain form is taken.
func (s *ShopService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "shop"
	}

	slug := base
	for i := 2; ; i++ {
		existing, err := s.shopRepo.GetBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
