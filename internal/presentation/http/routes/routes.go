package routes

import (
	"time"

	"github.com/dukaanpos/dukaan-api/internal/config"
	domainRepo "github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/handler"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/middleware"
	"github.com/dukaanpos/dukaan-api/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth      *handler.AuthHandler
	Shop      *handler.ShopHandler
	Customer  *handler.CustomerHandler
	Ledger    *handler.LedgerHandler
	Product   *handler.ProductHandler
	Checkout  *handler.CheckoutHandler
	Order     *handler.OrderHandler
	Dashboard *handler.DashboardHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	ShopRepo        domainRepo.ShopRepository
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		registerAccountRoutes(protected, h)

		// Shop-scoped routes: every query below here is confined to the
		// user's shop.
		scoped := protected.Group("")
		scoped.Use(middleware.ShopMiddleware(deps.ShopRepo))

		rateLimiter := middleware.NewShopRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		scoped.Use(rateLimiter.Middleware())

		registerShopScopedRoutes(scoped, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.RefreshToken)
		// Google OAuth routes
		auth.GET("/google", h.Auth.GoogleAuth)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}
}

// registerAccountRoutes covers what an authenticated user can do before
// they have a shop.
func registerAccountRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/me", h.Auth.GetMe)

	shops := protected.Group("/shops")
	{
		shops.POST("", h.Shop.Create)
		shops.GET("/mine", h.Shop.Get)
	}

	invitations := protected.Group("/invitations")
	{
		invitations.GET("/pending", h.Shop.PendingInvitation)
		invitations.POST("/accept", h.Shop.AcceptInvitation)
	}
}

func registerShopScopedRoutes(scoped *gin.RouterGroup, h *Handlers, deps *Deps) {
	scoped.POST("/shops/invite", h.Shop.Invite)
	scoped.GET("/shops/members", h.Shop.Members)

	customers := scoped.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)

		// Ledger: statement, live stream, consistency check, and the
		// idempotent transaction post.
		customers.GET("/:id/ledger", h.Ledger.Get)
		customers.GET("/:id/ledger/stream", h.Ledger.Stream)
		customers.GET("/:id/ledger/reconcile", h.Ledger.Reconcile)
		customers.POST("/:id/transactions",
			middleware.IdempotencyRequired(deps.IdempotencyRepo),
			h.Ledger.Apply)
	}

	products := scoped.Group("/products")
	{
		products.GET("", h.Product.List)
		products.POST("", h.Product.Create)
		products.GET("/low-stock", h.Product.LowStock)
		products.GET("/:id", h.Product.Get)
		products.PUT("/:id", h.Product.Update)
		products.DELETE("/:id", h.Product.Delete)
	}

	scoped.POST("/checkout",
		middleware.IdempotencyRequired(deps.IdempotencyRepo),
		h.Checkout.Checkout)

	orders := scoped.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.GET("/:id", h.Order.Get)
	}

	dashboard := scoped.Group("/dashboard")
	{
		dashboard.GET("", h.Dashboard.GetStats)
		dashboard.GET("/pay-later", h.Dashboard.GetPayLaterReport)
	}
}
