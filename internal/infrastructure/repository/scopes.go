package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type contextKey string

const shopIDKey contextKey = "shop_id"

// WithShop returns a context carrying the shop the request is scoped to.
// Every repository query below the middleware runs inside this scope.
func WithShop(ctx context.Context, shopID uuid.UUID) context.Context {
	return context.WithValue(ctx, shopIDKey, shopID)
}

// GetShopID extracts the shop scope from the context
func GetShopID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(shopIDKey).(uuid.UUID)
	return id, ok
}

// ShopScope is a gorm scope restricting a query to the context's shop.
// A context without a shop matches no rows rather than all rows.
func ShopScope(ctx context.Context) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		shopID, ok := GetShopID(ctx)
		if !ok {
			return db.Where("1 = 0")
		}
		return db.Where("shop_id = ?", shopID)
	}
}
