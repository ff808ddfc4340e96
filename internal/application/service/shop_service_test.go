package service

import (
	"context"
	"testing"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	infraRepo "github.com/dukaanpos/dukaan-api/internal/infrastructure/repository"
	"github.com/dukaanpos/dukaan-api/pkg/apperror"
)

func newShopService(e *testEnv) *ShopService {
	return NewShopService(
		infraRepo.NewShopRepository(e.db),
		infraRepo.NewUserRepository(e.db),
	)
}

func (e *testEnv) createUser(t *testing.T, name, email string) *entity.User {
	t.Helper()
	user := &entity.User{Name: name, Email: email, Provider: "local"}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestCreateShopSlugsAndOwnership(t *testing.T) {
	e := newTestEnv(t)
	svc := newShopService(e)
	owner := e.createUser(t, "Ravi", "ravi@example.com")

	shop, err := svc.CreateShop(context.Background(), owner.ID, "Ravi's Kirana!")
	if err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	if shop.Slug != "ravi-s-kirana" {
		t.Fatalf("unexpected slug %q", shop.Slug)
	}

	mine, err := svc.GetMyShop(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("owner must be a member of their shop: %v", err)
	}
	if mine.ID != shop.ID {
		t.Fatalf("GetMyShop returned a different shop")
	}

	// One shop per user.
	if _, err := svc.CreateShop(context.Background(), owner.ID, "Second Shop"); err == nil {
		t.Fatalf("expected second shop creation to fail")
	}
}

func TestCreateShopDisambiguatesSlugs(t *testing.T) {
	e := newTestEnv(t)
	svc := newShopService(e)
	first := e.createUser(t, "A", "a@example.com")
	second := e.createUser(t, "B", "b@example.com")

	one, err := svc.CreateShop(context.Background(), first.ID, "Kirana")
	if err != nil {
		t.Fatalf("first shop failed: %v", err)
	}
	two, err := svc.CreateShop(context.Background(), second.ID, "Kirana")
	if err != nil {
		t.Fatalf("second shop failed: %v", err)
	}
	if one.Slug == two.Slug {
		t.Fatalf("expected distinct slugs, both %q", one.Slug)
	}
}

func TestInvitationFlow(t *testing.T) {
	e := newTestEnv(t)
	svc := newShopService(e)
	owner := e.createUser(t, "Ravi", "ravi2@example.com")
	staff := e.createUser(t, "Meena", "meena@example.com")

	shop, err := svc.CreateShop(context.Background(), owner.ID, "Main Branch")
	if err != nil {
		t.Fatalf("create shop failed: %v", err)
	}

	// Only the owner can invite.
	if _, err := svc.InviteStaff(context.Background(), shop.ID, staff.ID, "x@example.com"); err == nil {
		t.Fatalf("expected non-owner invite to be rejected")
	}

	if _, err := svc.InviteStaff(context.Background(), shop.ID, owner.ID, "meena@example.com"); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	pending, err := svc.PendingInvitation(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("pending invitation lookup failed: %v", err)
	}
	if pending == nil || pending.ShopID != shop.ID {
		t.Fatalf("expected pending invitation for the shop")
	}

	joined, err := svc.AcceptInvitation(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("accept invitation failed: %v", err)
	}
	if joined.ID != shop.ID {
		t.Fatalf("joined the wrong shop")
	}

	if err := svc.RequireMembership(context.Background(), shop.ID, staff.ID); err != nil {
		t.Fatalf("staff must be a member after accepting: %v", err)
	}

	// The invitation is consumed.
	pending, err = svc.PendingInvitation(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("pending invitation lookup failed: %v", err)
	}
	if pending != nil {
		t.Fatalf("expected invitation to be consumed")
	}
}

func TestRequireMembershipRejectsOutsiders(t *testing.T) {
	e := newTestEnv(t)
	svc := newShopService(e)
	owner := e.createUser(t, "Ravi", "ravi3@example.com")
	outsider := e.createUser(t, "Eve", "eve@example.com")

	shop, err := svc.CreateShop(context.Background(), owner.ID, "Side Branch")
	if err != nil {
		t.Fatalf("create shop failed: %v", err)
	}

	err = svc.RequireMembership(context.Background(), shop.ID, outsider.ID)
	appErr := apperror.GetAppError(err)
	if appErr.Code != 403 {
		t.Fatalf("expected 403 for outsider, got %d", appErr.Code)
	}
}
