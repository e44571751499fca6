// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/dashboard"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/handlers"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger, cfg *config.Config) {
	SetupProductRoutes(rg, db, cfg)
	SetupCartRoutes(rg, db, redisClient, log, cfg)
	SetupDashboardRoutes(rg, db, log, cfg)
}

// SetupProductRoutes sets up product browsing routes
func SetupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
	}
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, redisClient, log, cfg)

	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(cfg)) // Guests carry a session cart
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.DELETE("/items/:id", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)

		// Merge requires a logged-in account to merge into
		authed := cart.Group("")
		authed.Use(middleware.AuthMiddleware(cfg))
		{
			authed.POST("/merge", cartHandler.MergeCart)
		}
	}
}

// SetupDashboardRoutes sets up seller dashboard routes. The cache controller
// is shared across requests so the freshness window holds process-wide.
func SetupDashboardRoutes(rg *gin.RouterGroup, db *gorm.DB, log *logrus.Logger, cfg *config.Config) {
	controller := dashboard.NewController(dashboard.NewGormRepository(db), cfg.Dashboard.StaleWindow, log)
	dashboardHandler := handlers.NewDashboardHandler(controller)

	dash := rg.Group("/dashboard")
	dash.Use(middleware.AuthMiddleware(cfg))
	{
		dash.GET("", dashboardHandler.GetDashboard)
		dash.PUT("/orders/:id/status", dashboardHandler.UpdateOrderStatus)
	}
}
