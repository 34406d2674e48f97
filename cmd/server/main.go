package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dmaher/gearbay/internal/api/handlers"
	"github.com/dmaher/gearbay/internal/config"
	"github.com/dmaher/gearbay/internal/database"
	"github.com/dmaher/gearbay/internal/ebay"
	"github.com/dmaher/gearbay/internal/geo"
	"github.com/dmaher/gearbay/internal/health"
	"github.com/dmaher/gearbay/internal/middleware"
	"github.com/dmaher/gearbay/internal/models"
	"github.com/dmaher/gearbay/internal/repository"
	"github.com/dmaher/gearbay/internal/services"
	"github.com/dmaher/gearbay/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := cfg.ValidateEbay(); err != nil {
		logger.WithError(err).Fatal("Ebay configuration validation failed")
	}

	// Initialize database and Redis
	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	repos := repository.NewRepositoryManager(dbManager.DB)

	// Marketplace client with its file-backed response cache
	cache := ebay.NewFileCache(cfg.Cache.Dir, logger)
	ebayClient := ebay.NewClient(ebay.Config{
		FindingURL:  cfg.Ebay.FindingURL,
		ShoppingURL: cfg.Ebay.ShoppingURL,
		AppID:       cfg.Ebay.AppID,
		TrackingID:  cfg.Ebay.TrackingID,
	}, cache, logger)

	// Geo bias is optional; without a database searches simply skip it
	var geoResolver geo.Resolver
	if cfg.GeoIP.DBPath != "" {
		resolver, err := geo.NewMaxMindResolver(cfg.GeoIP.DBPath, dbManager.Redis, logger)
		if err != nil {
			logger.WithError(err).Warn("GeoIP lookups disabled")
		} else {
			defer resolver.Close()
			geoResolver = resolver
		}
	}

	listingService := services.NewListingService(ebayClient, repos, geoResolver, logger)
	catalogHandler := handlers.NewCatalogHandler(repos, listingService, logger)
	checker := health.NewHealthChecker(dbManager, logger, cfg.Ebay.FindingURL, cfg.GeoIP.DBPath)

	if os.Getenv("LOG_LEVEL") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(120)
	api := router.Group("/api", limiter.RateLimit())
	api.GET("/categories", catalogHandler.HandleCategoryList)
	api.GET("/categories/:slug", catalogHandler.HandleCategory)
	api.GET("/products/:category/:slug", catalogHandler.HandleProduct)
	api.GET("/products/:category/:slug/items", catalogHandler.HandleProductItems)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "healthy",
			Service:   "gearbay",
			Timestamp: time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		overall := checker.CheckAll()
		code := http.StatusOK
		if overall.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, overall)
	})

	logger.WithField("port", cfg.Server.Port).Info("Starting server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
