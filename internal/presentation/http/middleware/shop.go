package middleware

import (
	"github.com/dukaanpos/dukaan-api/internal/domain/repository"
	infraRepo "github.com/dukaanpos/dukaan-api/internal/infrastructure/repository"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShopMiddleware resolves the authenticated user's shop and scopes the
// request to it. Everything behind it only ever sees that shop's rows.
func ShopMiddleware(shopRepo repository.ShopRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, exists := c.Get("user_id")
		if !exists {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}
		userID, ok := userIDVal.(uuid.UUID)
		if !ok {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		shop, err := shopRepo.GetForUser(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if shop == nil {
			response.Forbidden(c, "Create or join a shop first")
			c.Abort()
			return
		}

		c.Set("shop_id", shop.ID)
		c.Set("shop", shop)

		ctx := infraRepo.WithShop(c.Request.Context(), shop.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetShopID retrieves the shop ID from gin context
func GetShopID(c *gin.Context) uuid.UUID {
	shopID, exists := c.Get("shop_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := shopID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
