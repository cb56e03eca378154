// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openmall/mall-backend/internal/cache"
	"github.com/openmall/mall-backend/internal/config"
	"github.com/openmall/mall-backend/internal/handlers"
	"github.com/openmall/mall-backend/internal/middleware"
	"github.com/openmall/mall-backend/internal/services"
	"github.com/openmall/mall-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	domainCache := cache.NewDomainCache(cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	storeService := services.NewStoreService(db, cfg, domainCache)
	attributeService := services.NewAttributeService(db)
	productService := services.NewProductService(db)
	variantService := services.NewVariantService(db, cfg, productService)
	orderService := services.NewOrderService(db, variantService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	storeHandler := handlers.NewStoreHandler(storeService)
	attributeHandler := handlers.NewAttributeHandler(attributeService, storeService)
	productHandler := handlers.NewProductHandler(productService, storeService, storageService)
	variantHandler := handlers.NewVariantHandler(variantService, storeService)
	storefrontHandler := handlers.NewStorefrontHandler(productService, variantService)
	orderHandler := handlers.NewOrderHandler(orderService)
	adminHandler := handlers.NewAdminHandler(db, storeService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.Language(cfg))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Customer-facing storefront. These routes are tenant-scoped: the
	// Host header decides which store they operate on.
	shop := r.Group("/shop")
	shop.Use(middleware.TenantResolver(storeService), middleware.StoreContextRequired())
	{
		shop.GET("", storefrontHandler.GetStoreInfo)
		shop.GET("/products", storefrontHandler.ListProducts)
		shop.GET("/products/:slug", storefrontHandler.GetProduct)
		shop.POST("/products/:slug/resolve", storefrontHandler.ResolveVariant)

		shop.POST("/orders", middleware.AuthRequired(), middleware.CheckoutRateLimit(), orderHandler.PlaceOrder)
	}

	// API v1 routes (platform domain)
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Customer order history
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.GET("", orderHandler.ListMyOrders)
			orders.GET("/:orderId", orderHandler.GetOrder)
			orders.POST("/:orderId/cancel", orderHandler.CancelOrder)
		}

		// Merchant console
		stores := v1.Group("/stores")
		stores.Use(middleware.AuthRequired(), middleware.OwnerRequired())
		{
			stores.POST("", storeHandler.CreateStore)
			stores.GET("", storeHandler.ListOwnerStores)
			stores.GET("/:id", storeHandler.GetStore)
			stores.PUT("/:id", storeHandler.UpdateStore)

			// Domain bindings
			stores.POST("/:id/domains", storeHandler.BindDomain)
			stores.DELETE("/:id/domains/:domain", storeHandler.UnbindDomain)
			stores.PUT("/:id/domains/:domain/primary", storeHandler.SetPrimaryDomain)

			// Attribute schema
			stores.POST("/:id/attributes", attributeHandler.DefineAttribute)
			stores.GET("/:id/attributes", attributeHandler.ListAttributes)
			stores.GET("/:id/attributes/:attrId", attributeHandler.GetAttribute)
			stores.PUT("/:id/attributes/:attrId", attributeHandler.UpdateAttribute)
			stores.POST("/:id/attributes/:attrId/values", attributeHandler.AddAttributeValue)
			stores.PUT("/:id/attributes/:attrId/values/:valueId", attributeHandler.UpdateAttributeValue)

			// Catalog
			stores.POST("/:id/products", productHandler.CreateProduct)
			stores.GET("/:id/products", productHandler.ListProducts)
			stores.GET("/:id/products/:productId", productHandler.GetProduct)
			stores.PUT("/:id/products/:productId", productHandler.UpdateProduct)
			stores.DELETE("/:id/products/:productId", productHandler.DeleteProduct)
			stores.POST("/:id/products/:productId/media", middleware.UploadRateLimit(), productHandler.UploadMedia)

			// Attribute bindings
			stores.POST("/:id/products/:productId/attributes/:attrId", attributeHandler.BindAttribute)
			stores.DELETE("/:id/products/:productId/attributes/:attrId", attributeHandler.UnbindAttribute)

			// Variants
			stores.POST("/:id/products/:productId/variants", variantHandler.CreateVariant)
			stores.POST("/:id/products/:productId/variants/generate", middleware.GenerateRateLimit(), variantHandler.GenerateVariants)
			stores.GET("/:id/products/:productId/variants", variantHandler.ListVariants)
			stores.POST("/:id/products/:productId/variants/lookup", variantHandler.LookupVariant)
			stores.PUT("/:id/variants/:variantId", variantHandler.UpdateVariant)
			stores.POST("/:id/variants/:variantId/restock", variantHandler.Restock)

			// Orders
			stores.GET("/:id/orders", orderHandler.ListStoreOrders)
			stores.PUT("/:id/orders/:orderId/status", orderHandler.UpdateOrderStatus)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminStores := admin.Group("/stores")
			{
				adminStores.GET("", adminHandler.ListStores)
				adminStores.POST("/:id/approve", adminHandler.ApproveStore)
				adminStores.POST("/:id/deactivate", adminHandler.DeactivateStore)
			}

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.ListUsers)
				adminUsers.POST("/:userId/suspend", adminHandler.SuspendUser)
				adminUsers.POST("/:userId/unsuspend", adminHandler.UnsuspendUser)
			}

			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
