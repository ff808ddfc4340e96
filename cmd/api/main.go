package main

import (
	"context"
	"log"
	"os"

	"github.com/dukaanpos/dukaan-api/internal/application/service"
	"github.com/dukaanpos/dukaan-api/internal/config"
	"github.com/dukaanpos/dukaan-api/internal/feed"
	"github.com/dukaanpos/dukaan-api/internal/infrastructure/database"
	"github.com/dukaanpos/dukaan-api/internal/infrastructure/repository"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/handler"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/routes"
	"github.com/dukaanpos/dukaan-api/pkg/oauth"
	"github.com/dukaanpos/dukaan-api/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	shopRepo := repository.NewShopRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Initialize the live ledger feed. Redis is optional: without it,
	// updates only reach viewers connected to this instance.
	broker := feed.NewBroker()
	var bridge *feed.RedisBridge
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bridge = feed.NewRedisBridge(redisClient, broker)
		go func() {
			if err := bridge.Run(context.Background()); err != nil && err != context.Canceled {
				log.Printf("Warning: ledger feed bridge stopped: %v", err)
			}
		}()
	}

	// Initialize Google OAuth service
	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
	})

	// Initialize services
	authService := service.NewAuthService(userRepo, shopRepo, jwtManager, googleOAuthService)
	shopService := service.NewShopService(shopRepo, userRepo)
	customerService := service.NewCustomerService(customerRepo)
	ledgerService := service.NewLedgerService(ledgerRepo, customerRepo, broker, bridge,
		cfg.Ledger.MaxRetries, cfg.Ledger.RetryBackoff)
	checkoutService := service.NewCheckoutService(orderRepo, productRepo, ledgerService)
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo)
	dashboardService := service.NewDashboardService(analyticsRepo, ledgerRepo, productRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Shop:      handler.NewShopHandler(shopService),
		Customer:  handler.NewCustomerHandler(customerService),
		Ledger:    handler.NewLedgerHandler(ledgerService),
		Product:   handler.NewProductHandler(productService),
		Checkout:  handler.NewCheckoutHandler(checkoutService),
		Order:     handler.NewOrderHandler(orderService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		ShopRepo:        shopRepo,
		IdempotencyRepo: idempotencyRepo,
	})

	// Start server
	port := cfg.App.Port
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	log.Printf("Starting %s on port %s (%s)", cfg.App.Name, port, cfg.App.Env)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
